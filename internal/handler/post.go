package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/service"
)

// PostHandler serves the post pages.
//
// Every handler except HandleIndex is mounted behind
// middleware.RequireAuthenticated, so the context always holds a user there.
type PostHandler struct {
	posts   *service.PostService
	pages   *Renderer
	metrics Recorder
	logger  *slog.Logger
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(posts *service.PostService, pages *Renderer, metrics Recorder, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		posts:   posts,
		pages:   pages,
		metrics: metrics,
		logger:  logger,
	}
}

// HandleIndex lists every post, newest first.
//
// HTTP: GET /
func (h *PostHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		h.pages.renderError(w, r, err)
		return
	}
	h.pages.render(w, r, http.StatusOK, "index", pageData{Title: "Posts", Posts: posts})
}

// HTTP: GET /create
func (h *PostHandler) HandleCreateForm(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, "create", pageData{Title: "New Post"})
}

// HandleCreate saves a post for the current user.
//
// HTTP: POST /create
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	title := r.PostFormValue("title")
	body := r.PostFormValue("body")

	if _, err := h.posts.Create(r.Context(), user, title, body); err != nil {
		if isFormError(err) {
			status, _, message := statusFor(err)
			h.pages.render(w, r, status, "create", pageData{
				Title: "New Post",
				Flash: message,
				Form:  map[string]string{"title": title, "body": body},
			})
			return
		}
		h.pages.renderError(w, r, err)
		return
	}

	h.metrics.RecordPostWrite("create")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleUpdateForm shows the edit form, prefilled with the stored post.
// Only the author gets this far; others see 404 or 403.
//
// HTTP: GET /{id}/update
func (h *PostHandler) HandleUpdateForm(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	post, err := h.posts.GetOwned(r.Context(), user, postID(r))
	if err != nil {
		h.pages.renderError(w, r, err)
		return
	}

	h.pages.render(w, r, http.StatusOK, "update", pageData{
		Title: `Edit "` + post.Title + `"`,
		Post:  post,
		Form:  map[string]string{"title": post.Title, "body": post.Body},
	})
}

// HandleUpdate saves new title and body for a post the user owns.
//
// HTTP: POST /{id}/update
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id := postID(r)
	title := r.PostFormValue("title")
	body := r.PostFormValue("body")

	if _, err := h.posts.Update(r.Context(), user, id, title, body); err != nil {
		if isFormError(err) {
			h.rerenderUpdate(w, r, user, id, err, title, body)
			return
		}
		h.pages.renderError(w, r, err)
		return
	}

	h.metrics.RecordPostWrite("update")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// rerenderUpdate shows the edit form again with the submitted values and
// the validation message.
func (h *PostHandler) rerenderUpdate(w http.ResponseWriter, r *http.Request, user *model.User, id int64, cause error, title, body string) {
	post, err := h.posts.GetOwned(r.Context(), user, id)
	if err != nil {
		h.pages.renderError(w, r, err)
		return
	}

	status, _, message := statusFor(cause)
	h.pages.render(w, r, status, "update", pageData{
		Title: `Edit "` + post.Title + `"`,
		Flash: message,
		Post:  post,
		Form:  map[string]string{"title": title, "body": body},
	})
}

// HandleDelete removes a post the user owns.
//
// HTTP: POST /{id}/delete
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := h.posts.Delete(r.Context(), user, postID(r)); err != nil {
		h.pages.renderError(w, r, err)
		return
	}

	h.metrics.RecordPostWrite("delete")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// postID reads the {id} URL parameter. The route pattern only admits
// digits, so the only possible parse failure is overflow; that yields 0,
// which the service reports as NotFound.
func postID(r *http.Request) int64 {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
