package models

import "time"

// User represents a registered account.
// PasswordHash is nil for accounts provisioned through an external
// provider; such accounts cannot log in with a password until one is set.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Post represents an image post.
// Likes holds the ids of the users who liked the post, each at most once.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Caption   string    `json:"caption"`
	ImageURL  string    `json:"image_url"`
	ImageKey  string    `json:"-"`
	Likes     []string  `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment represents a comment on a post
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
