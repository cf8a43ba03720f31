package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/social-platform/internal/auth"
	"github.com/sakif/social-platform/internal/model"
)

const msgPostFailure = "Внутренняя ошибка сервера"

// PostService is what PostHandler needs from the post flow.
// *service.PostService satisfies it.
type PostService interface {
	Create(ctx context.Context, authorID, title, content string) (*model.Post, error)
	List(ctx context.Context, page, limit int) (*model.PostPage, error)
	Get(ctx context.Context, id string) (*model.Post, error)
	Update(ctx context.Context, id, callerID string, patch model.PostPatch) (*model.Post, error)
	Delete(ctx context.Context, id, callerID string) error
}

// PostHandler manages CRUD operations for posts.
//
// Reads are public. Create, update and delete sit behind auth.RequireAuth;
// the author-only rule lives in the service.
type PostHandler struct {
	posts  PostService
	logger *slog.Logger
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(posts PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// HandleCreate publishes a post as the caller.
//
// HTTP: POST /posts
// REQUEST BODY: {"title": "T", "content": "C"}
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: msgNoToken})
		return
	}

	var req postRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, msgPostFailure)
		return
	}

	post, err := h.posts.Create(r.Context(), callerID, req.Title, req.Content)
	if err != nil {
		writeError(w, h.logger, err, msgPostFailure)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// HandleList returns one page of posts, newest first.
//
// HTTP: GET /posts?page=2&limit=10
//
// Missing or non-numeric page/limit fall back to 1 and 20.
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := queryInt(q.Get("page"))
	limit := queryInt(q.Get("limit"))

	result, err := h.posts.List(r.Context(), page, limit)
	if err != nil {
		writeError(w, h.logger, err, msgPostFailure)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleGet returns one post.
//
// HTTP: GET /posts/{id}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err, msgPostFailure)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// HandleUpdate edits a post the caller wrote.
//
// HTTP: PUT /posts/{id}
// REQUEST BODY: {"title"?: "...", "content"?: "..."}; omitted or empty
// fields are left unchanged.
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: msgNoToken})
		return
	}

	var req postRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, msgPostFailure)
		return
	}

	post, err := h.posts.Update(r.Context(), chi.URLParam(r, "id"), callerID, model.PostPatch{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		writeError(w, h.logger, err, msgPostFailure)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// HandleDelete removes a post the caller wrote.
//
// HTTP: DELETE /posts/{id}
// RESPONSE: 204 No Content
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: msgNoToken})
		return
	}

	if err := h.posts.Delete(r.Context(), chi.URLParam(r, "id"), callerID); err != nil {
		writeError(w, h.logger, err, msgPostFailure)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// queryInt parses a query value; anything unparseable is 0, which the
// service replaces with its default.
func queryInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
