package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/blog/internal/service"
)

// APIHandler serves read-only JSON views of the posts.
type APIHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

// NewAPIHandler creates an APIHandler.
func NewAPIHandler(posts *service.PostService, logger *slog.Logger) *APIHandler {
	return &APIHandler{posts: posts, logger: logger}
}

// HandleList returns every post, newest first.
//
// HTTP: GET /api/posts
//
//	[{"id":2,"authorId":1,"authorUsername":"alice","title":"...","body":"...","created":"..."}, ...]
func (h *APIHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		h.logger.Error("api: listing posts", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleGet returns one post.
//
// HTTP: GET /api/posts/{id}
func (h *APIHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), postID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleHello is a plain-text liveness check.
//
// HTTP: GET /hello
func HandleHello(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Hello, World!"))
}
