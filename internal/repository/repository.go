// Package repository declares the storage contracts used by the service layer.
//
// The service layer depends on these interfaces, never on a concrete
// database. internal/repository/sqlite implements both of them on one *DB.
package repository

import (
	"context"

	"github.com/sakif/blog/internal/model"
)

// UserRepository persists accounts.
//
// Lookups return an apperror.ErrNotFound kind when no row matches.
// CreateUser returns an apperror.ErrConflict kind when the username is taken.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// PostRepository persists posts. Reads join the author's username.
type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPostByID(ctx context.Context, id int64) (*model.Post, error)
	ListPosts(ctx context.Context) ([]model.Post, error)
	UpdatePost(ctx context.Context, post *model.Post) error
	DeletePost(ctx context.Context, id int64) error
}
