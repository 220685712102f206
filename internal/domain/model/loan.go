package model

import (
	"time"
)

// Loan binds a user to a borrowed book. BookID is always the identifier;
// Book is the resolved record, populated only by joining queries and nil
// otherwise. Returned transitions false -> true exactly once; records are
// kept for history.
type Loan struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	BookID    string    `json:"book"`
	Book      *Book     `json:"bookDetails,omitempty"`
	DueDate   time.Time `json:"dueDate"`
	Returned  bool      `json:"returned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CustomerLoanView is the reduced loan projection for customers.
type CustomerLoanView struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user"`
	BookID   string    `json:"book"`
	DueDate  time.Time `json:"dueDate"`
	Returned bool      `json:"returned"`
}
