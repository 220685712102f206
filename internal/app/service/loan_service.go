package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"library_api/internal/common"
	"library_api/internal/domain/model"
	"library_api/internal/domain/repository"
	"library_api/internal/platform/database"

	"github.com/google/uuid"
)

// Loan windows in days, selected by the book's rating. Better-rated books
// may be kept longer.
const (
	dueDaysTopRated  = 30 // rating 5
	dueDaysWellRated = 14 // rating 4
	dueDaysStandard  = 7  // everything else
)

// DueDateForRating computes a loan's due date from its book's rating.
func DueDateForRating(from time.Time, rating int) time.Time {
	days := dueDaysStandard
	switch rating {
	case 5:
		days = dueDaysTopRated
	case 4:
		days = dueDaysWellRated
	}
	return from.AddDate(0, 0, days)
}

type LoanService struct {
	loanRepo repository.LoanRepository
	bookRepo repository.BookRepository
	tx       database.TxManager
}

func NewLoanService(loanRepo repository.LoanRepository, bookRepo repository.BookRepository, tx database.TxManager) *LoanService {
	return &LoanService{loanRepo: loanRepo, bookRepo: bookRepo, tx: tx}
}

// LoanBook opens a loan for the user. The availability decrement is a
// conditional update inside the same transaction as the loan insert, so two
// requests racing for the last copy cannot both succeed.
func (s *LoanService) LoanBook(ctx context.Context, userID, bookID string) (*model.Loan, error) {
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("Book not available: %w", common.ErrBadRequest)
	}

	loan := &model.Loan{
		ID:       uuid.NewString(),
		UserID:   userID,
		BookID:   book.ID,
		DueDate:  DueDateForRating(time.Now(), book.Rating),
		Returned: false,
	}

	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		taken, err := s.bookRepo.DecrementAvailable(ctx, tx, book.ID)
		if err != nil {
			return fmt.Errorf("failed to decrement available copies: %w", err)
		}
		if !taken {
			return fmt.Errorf("Book not available: %w", common.ErrBadRequest)
		}
		return s.loanRepo.Create(ctx, tx, loan)
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// ReturnBook closes a loan and puts its copy back on the shelf. Closing is
// terminal: a second return of the same loan fails instead of inflating the
// available count.
func (s *LoanService) ReturnBook(ctx context.Context, loanID string) (*model.Loan, error) {
	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("Loan not found: %w", common.ErrBadRequest)
	}
	if loan.Returned {
		return nil, fmt.Errorf("Loan already returned: %w", common.ErrBadRequest)
	}

	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.loanRepo.MarkReturned(ctx, tx, loan.ID); err != nil {
			return fmt.Errorf("failed to close loan: %w", err)
		}
		restored, err := s.bookRepo.IncrementAvailable(ctx, tx, loan.BookID)
		if err != nil {
			return fmt.Errorf("failed to increment available copies: %w", err)
		}
		if !restored {
			// Every open loan accounts for one missing copy, so the guarded
			// increment cannot legitimately miss.
			return fmt.Errorf("available copies already at total for book %s: %w", loan.BookID, common.ErrInternalServer)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	loan.Returned = true
	return loan, nil
}

func (s *LoanService) GetLoansByUser(ctx context.Context, userID string) ([]model.Loan, error) {
	return s.loanRepo.FindByUser(ctx, userID)
}

func (s *LoanService) GetAllLoans(ctx context.Context) ([]model.Loan, error) {
	return s.loanRepo.FindAllWithBooks(ctx)
}

// ShapeForRole reduces a loan to the customer projection; employees get the
// full record including any resolved book.
func (s *LoanService) ShapeForRole(loan *model.Loan, role string) interface{} {
	if role != model.RoleCustomer {
		return loan
	}
	return &model.CustomerLoanView{
		ID:       loan.ID,
		UserID:   loan.UserID,
		BookID:   loan.BookID,
		DueDate:  loan.DueDate,
		Returned: loan.Returned,
	}
}
