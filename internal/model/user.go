// Package model defines the data structures used throughout the application.
package model

// User represents a registered account.
//
// Username is case-sensitive and never changes after registration.
// PasswordHash holds the bcrypt digest; it is never serialized to JSON.
type User struct {
	ID           int64  `json:"id"       db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-"        db:"password"`
}
