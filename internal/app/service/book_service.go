package service

import (
	"context"
	"fmt"

	"library_api/internal/common"
	"library_api/internal/domain/model"
	"library_api/internal/domain/repository"

	"github.com/google/uuid"
)

type BookService struct {
	bookRepo repository.BookRepository
	loanRepo repository.LoanRepository
}

func NewBookService(bookRepo repository.BookRepository, loanRepo repository.LoanRepository) *BookService {
	return &BookService{bookRepo: bookRepo, loanRepo: loanRepo}
}

type CreateBookRequest struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Genre       string `json:"genre" validate:"required"`
	Rating      int    `json:"rating" validate:"required,gte=1,lte=5"`
	TotalCopies int    `json:"totalCopies" validate:"gte=0"`
}

type UpdateBookRequest struct {
	Title           *string `json:"title,omitempty"`
	Author          *string `json:"author,omitempty"`
	Genre           *string `json:"genre,omitempty"`
	Rating          *int    `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	AvailableCopies *int    `json:"availableCopies,omitempty" validate:"omitempty,gte=0"`
}

func (s *BookService) ListBooks(ctx context.Context, page, limit int) ([]model.Book, int, error) {
	offset := (page - 1) * limit
	books, total, err := s.bookRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list books: %w", err)
	}
	return books, total, nil
}

func (s *BookService) GetBook(ctx context.Context, id string) (*model.Book, error) {
	return s.bookRepo.FindByID(ctx, id)
}

func (s *BookService) CreateBook(ctx context.Context, req CreateBookRequest) (*model.Book, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid book payload: %w", common.ErrValidation)
	}

	book := &model.Book{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Author:          req.Author,
		Genre:           req.Genre,
		Rating:          req.Rating,
		TotalCopies:     req.TotalCopies,
		AvailableCopies: req.TotalCopies, // every copy starts on the shelf
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	return book, nil
}

func (s *BookService) UpdateBook(ctx context.Context, id string, req UpdateBookRequest) (*model.Book, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid book payload: %w", common.ErrValidation)
	}

	book, err := s.bookRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Author != nil {
		book.Author = *req.Author
	}
	if req.Genre != nil {
		book.Genre = *req.Genre
	}
	if req.Rating != nil {
		book.Rating = *req.Rating
	}
	if req.AvailableCopies != nil {
		if *req.AvailableCopies > book.TotalCopies {
			return nil, fmt.Errorf("availableCopies cannot exceed totalCopies: %w", common.ErrValidation)
		}
		book.AvailableCopies = *req.AvailableCopies
	}

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	return book, nil
}

func (s *BookService) DeleteBook(ctx context.Context, id string) error {
	if _, err := s.bookRepo.FindByID(ctx, id); err != nil {
		return err
	}

	loaned, err := s.loanRepo.HasOpenLoanForBook(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check open loans: %w", err)
	}
	if loaned {
		return fmt.Errorf("cannot delete loaned book: %w", common.ErrConflict)
	}

	return s.bookRepo.Delete(ctx, id)
}

// ShapeForRole projects a book for the caller's role. Employees get the full
// record. Customers get the restricted view: while copies remain it carries
// the count; once none do it instead carries the soonest due date among the
// book's open loans, nil when there is none (possible after manual copy
// edits, not an error).
func (s *BookService) ShapeForRole(ctx context.Context, book *model.Book, role string) (interface{}, error) {
	if role != model.RoleCustomer {
		return book, nil
	}

	view := &model.CustomerBookView{
		ID:     book.ID,
		Title:  book.Title,
		Author: book.Author,
		Genre:  book.Genre,
		Rating: book.Rating,
	}
	if book.AvailableCopies > 0 {
		copies := book.AvailableCopies
		view.AvailableCopies = &copies
		return view, nil
	}

	due, err := s.loanRepo.SoonestDueDateForBook(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve availability date: %w", err)
	}
	view.AvailableAt = due
	return view, nil
}
