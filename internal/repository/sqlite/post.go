package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

// Every read goes through this join. An inner join drops posts whose
// author row no longer exists.
const selectPosts = `
	SELECT p.id, p.author_id, u.username, p.title, p.body, p.created
	FROM post p
	JOIN user u ON p.author_id = u.id`

// CreatePost inserts a new post and sets post.ID.
//
// Created is stored exactly as given (the service sets it to the current
// UTC time). A zero Created is replaced with time.Now().UTC().
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	if post.Created.IsZero() {
		post.Created = time.Now().UTC()
	}

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO post (author_id, title, body, created) VALUES (?, ?, ?, ?)`,
		post.AuthorID,
		post.Title,
		post.Body,
		post.Created,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post for author %d: %w", post.AuthorID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new post id: %w", err)
	}
	post.ID = id

	return nil
}

// GetPostByID retrieves a single post with its author's username.
// Returns apperror.ErrNotFound if no row matches.
func (db *DB) GetPostByID(ctx context.Context, id int64) (*model.Post, error) {
	var p model.Post

	err := db.conn.QueryRowContext(ctx, selectPosts+` WHERE p.id = ?`, id).Scan(
		&p.ID,
		&p.AuthorID,
		&p.AuthorUsername,
		&p.Title,
		&p.Body,
		&p.Created,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %d: %w", id, err)
	}

	return &p, nil
}

// ListPosts returns every post, newest first.
//
// There is no pagination. Posts created within the same clock tick are
// ordered by id so the most recently inserted one still comes first.
func (db *DB) ListPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := db.conn.QueryContext(ctx, selectPosts+` ORDER BY p.created DESC, p.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(
			&p.ID, &p.AuthorID, &p.AuthorUsername,
			&p.Title, &p.Body, &p.Created,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	return posts, nil
}

// UpdatePost rewrites title and body only. id, author_id and created
// are never touched by this statement.
func (db *DB) UpdatePost(ctx context.Context, post *model.Post) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE post SET title = ?, body = ? WHERE id = ?`,
		post.Title,
		post.Body,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %d: %w", post.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", post.ID)
	}

	return nil
}

// DeletePost removes a post permanently.
func (db *DB) DeletePost(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM post WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", id)
	}

	return nil
}
