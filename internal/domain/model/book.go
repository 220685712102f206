package model

import (
	"time"
)

// Book invariant: 0 <= AvailableCopies <= TotalCopies. Copies move only
// through the conditional loan/return updates in the book repository.
type Book struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Genre           string    `json:"genre"`
	Rating          int       `json:"rating"` // 1 to 5 stars
	TotalCopies     int       `json:"totalCopies"`
	AvailableCopies int       `json:"availableCopies"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (b *Book) IsAvailable() bool {
	return b.AvailableCopies > 0
}

// CustomerBookView is the restricted catalog projection for customers.
// AvailableCopies is present only while copies remain; once none do,
// AvailableAt carries the soonest due date among the book's open loans
// (null when no open loan exists).
type CustomerBookView struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	Genre           string     `json:"genre"`
	Rating          int        `json:"rating"`
	AvailableCopies *int       `json:"availableCopies,omitempty"`
	AvailableAt     *time.Time `json:"availableAt,omitempty"`
}
