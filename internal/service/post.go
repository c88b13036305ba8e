// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses forms, renders pages, sets cookies
//	Service (Business layer) → validates, authorizes, orchestrates
//	Repository (Data layer)  → reads/writes the database
//
// Services accept primitives and the current *model.User explicitly, and
// return apperror kinds. They know nothing about HTTP.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// PostService handles business logic for blog posts.
type PostService struct {
	repo   repository.PostRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewPostService creates a new PostService.
func NewPostService(repo repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// List returns every post, newest first, with author usernames.
func (s *PostService) List(ctx context.Context) ([]model.Post, error) {
	posts, err := s.repo.ListPosts(ctx)
	if err != nil {
		s.logger.Error("failed to list posts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// Get returns one post. Anyone may read any post.
func (s *PostService) Get(ctx context.Context, id int64) (*model.Post, error) {
	if id <= 0 {
		return nil, apperror.NotFound("post", id)
	}
	return s.repo.GetPostByID(ctx, id)
}

// GetOwned is the fetch-then-authorize step every mutation goes through:
//
//	missing post          → NotFound
//	post of someone else  → Forbidden
//
// The two stay distinct kinds even though a UI may word them alike.
func (s *PostService) GetOwned(ctx context.Context, user *model.User, id int64) (*model.Post, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}

	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !post.OwnedBy(user) {
		s.logger.Warn("post access denied",
			slog.Int64("postID", post.ID),
			slog.Int64("authorID", post.AuthorID),
			slog.Int64("userID", user.ID),
		)
		return nil, apperror.Forbidden(fmt.Sprintf("You are not the author of post %d.", post.ID))
	}

	return post, nil
}

// Create validates and saves a new post owned by user.
// Whitespace-only titles count as empty; the title is stored trimmed.
func (s *PostService) Create(ctx context.Context, user *model.User, title, body string) (*model.Post, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}

	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		AuthorID:       user.ID,
		AuthorUsername: user.Username,
		Title:          title,
		Body:           body,
		Created:        s.now(),
	}

	if err := s.repo.CreatePost(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.Int64("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.Int64("postID", post.ID),
		slog.Int64("userID", user.ID),
	)
	return post, nil
}

// Update changes title and body of a post owned by user.
//
// Order of checks: NotFound, Forbidden, EmptyTitle. Created and AuthorID
// never change.
func (s *PostService) Update(ctx context.Context, user *model.User, id int64, title, body string) (*model.Post, error) {
	post, err := s.GetOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	title, err = validateTitle(title)
	if err != nil {
		return nil, err
	}

	post.Title = title
	post.Body = body

	if err := s.repo.UpdatePost(ctx, post); err != nil {
		s.logger.Error("failed to update post",
			slog.Int64("postID", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating post: %w", err)
	}

	s.logger.Info("post updated", slog.Int64("postID", post.ID), slog.Int64("userID", user.ID))
	return post, nil
}

// Delete permanently removes a post owned by user.
func (s *PostService) Delete(ctx context.Context, user *model.User, id int64) error {
	post, err := s.GetOwned(ctx, user, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeletePost(ctx, post.ID); err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}

	s.logger.Info("post deleted", slog.Int64("postID", post.ID), slog.Int64("userID", user.ID))
	return nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperror.ValidationFailed(apperror.CodeEmptyTitle, "title", "Title is required.")
	}
	return title, nil
}

// requireUser guards services against being called for an anonymous
// caller. The router already redirects anonymous users before this point.
func requireUser(user *model.User) error {
	if user == nil {
		return apperror.Unauthenticated(apperror.CodeLoginRequired, "You must be logged in.")
	}
	return nil
}
