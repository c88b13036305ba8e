package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/service"
)

// Recorder receives business events for metrics. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordLogin(outcome string)
	RecordPostWrite(action string)
}

// AuthHandler serves registration, login and logout.
//
//   - HandleRegisterForm / HandleRegister → GET/POST /auth/register
//   - HandleLoginForm / HandleLogin       → GET/POST /auth/login
//   - HandleLogout                        → GET /auth/logout
type AuthHandler struct {
	auth     *service.AuthService
	sessions *auth.SessionManager
	pages    *Renderer
	metrics  Recorder
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	sessions *auth.SessionManager,
	pages *Renderer,
	metrics Recorder,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:     authService,
		sessions: sessions,
		pages:    pages,
		metrics:  metrics,
		logger:   logger,
	}
}

func (h *AuthHandler) HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, "register", pageData{Title: "Register"})
}

// HandleRegister creates the account and sends the browser to the login
// page. The new user is not logged in.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	if _, err := h.auth.Register(r.Context(), username, password); err != nil {
		if isFormError(err) {
			status, _, message := statusFor(err)
			h.pages.render(w, r, status, "register", pageData{
				Title: "Register",
				Flash: message,
				Form:  map[string]string{"username": username},
			})
			return
		}
		h.pages.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, "login", pageData{Title: "Log In"})
}

// HandleLogin verifies the credentials and replaces whatever session cookie
// the browser held with a freshly issued one.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	result, err := h.auth.Login(r.Context(), username, password)
	if err != nil {
		h.metrics.RecordLogin(string(apperror.CodeOf(err)))
		if isFormError(err) {
			status, _, message := statusFor(err)
			h.pages.render(w, r, status, "login", pageData{
				Title: "Log In",
				Flash: message,
				Form:  map[string]string{"username": username},
			})
			return
		}
		h.pages.renderError(w, r, err)
		return
	}

	h.metrics.RecordLogin("success")
	h.sessions.SetCookie(w, result.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout drops the session cookie. It works the same whether or not
// anyone is logged in.
//
// Sessions are stateless tokens, so logging out means the browser forgets
// the token; nothing is stored server-side.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
