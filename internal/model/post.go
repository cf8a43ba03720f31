package model

import "time"

// Post is a text post owned by exactly one user (AuthorID).
// Deleting the author removes their posts via ON DELETE CASCADE.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostPatch carries the fields of an update request. An empty string means
// "leave unchanged", so a field can never be cleared through an update.
type PostPatch struct {
	Title   string
	Content string
}

// PageMeta describes one page of a paginated listing.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// PostPage is the body of GET /posts.
type PostPage struct {
	Data []Post   `json:"data"`
	Meta PageMeta `json:"meta"`
}
