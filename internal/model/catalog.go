package model

import "time"

type Author struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	BooksCount int       `json:"books_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type AuthorDetail struct {
	Author
	Books                 []Book `json:"books"`
	LatestPublicationYear *int   `json:"latest_publication_year"`
}

type AuthorInput struct {
	Name *string `json:"name"`
}

type AuthorQuery struct {
	Search   string
	Ordering string
	Page     int
	PageSize int
}

type Book struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	PublicationYear int       `json:"publication_year"`
	AuthorID        int64     `json:"author"`
	AuthorName      string    `json:"author_name"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BookInput carries create and update payloads. Nil fields were absent from
// the request body.
type BookInput struct {
	Title           *string `json:"title"`
	PublicationYear *int    `json:"publication_year"`
	Author          *int64  `json:"author"`
}

type BookQuery struct {
	PublicationYear *int
	AuthorID        *int64
	Search          string
	Ordering        string
	Page            int
	PageSize        int
}
