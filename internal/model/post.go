package model

import "time"

// Post is a blog entry owned by exactly one User.
//
// AuthorUsername is not a column of the post table: it is filled in
// by the repository from the join with the user table on reads.
type Post struct {
	ID             int64     `json:"id"             db:"id"`
	AuthorID       int64     `json:"authorId"       db:"author_id"`
	AuthorUsername string    `json:"authorUsername" db:"username"`
	Title          string    `json:"title"          db:"title"`
	Body           string    `json:"body"           db:"body"`
	Created        time.Time `json:"created"        db:"created"`
}

// OwnedBy reports whether u is the author of the post.
func (p *Post) OwnedBy(u *User) bool {
	return u != nil && p.AuthorID == u.ID
}
