package service

import (
	"context"
	"testing"
	"time"

	"library_api/internal/common"
	"library_api/internal/domain/model"
	"library_api/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoanFixture(t *testing.T) (*LoanService, *testutil.InMemoryBookRepository, *testutil.InMemoryLoanRepository) {
	t.Helper()
	books := testutil.NewInMemoryBookRepository()
	loans := testutil.NewInMemoryLoanRepository(books)
	return NewLoanService(loans, books, testutil.NoopTxManager{}), books, loans
}

func seedBook(t *testing.T, books *testutil.InMemoryBookRepository, rating, total int) *model.Book {
	t.Helper()
	book := &model.Book{
		ID:              uuid.NewString(),
		Title:           "The Go Programming Language",
		Author:          "Donovan & Kernighan",
		Genre:           "Programming",
		Rating:          rating,
		TotalCopies:     total,
		AvailableCopies: total,
	}
	require.NoError(t, books.Create(context.Background(), book))
	return book
}

func TestDueDateForRating(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	top := DueDateForRating(now, 5)
	medium := DueDateForRating(now, 4)
	standard := DueDateForRating(now, 3)

	assert.Equal(t, now.AddDate(0, 0, 30), top)
	assert.Equal(t, now.AddDate(0, 0, 14), medium)
	assert.Equal(t, now.AddDate(0, 0, 7), standard)

	// Better rating, longer window.
	assert.True(t, top.After(medium))
	assert.True(t, medium.After(standard))

	for _, rating := range []int{1, 2, 3} {
		assert.Equal(t, standard, DueDateForRating(now, rating), "rating %d", rating)
	}
}

func TestLoanBookDecrementsAvailability(t *testing.T) {
	svc, books, _ := newLoanFixture(t)
	book := seedBook(t, books, 5, 3)
	userID := uuid.NewString()

	loan, err := svc.LoanBook(context.Background(), userID, book.ID)
	require.NoError(t, err)

	assert.Equal(t, userID, loan.UserID)
	assert.Equal(t, book.ID, loan.BookID)
	assert.False(t, loan.Returned)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), loan.DueDate, time.Minute)

	stored, err := books.FindByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.AvailableCopies)
}

func TestLoanBookUnknownBook(t *testing.T) {
	svc, _, _ := newLoanFixture(t)

	_, err := svc.LoanBook(context.Background(), uuid.NewString(), uuid.NewString())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrBadRequest)
	assert.Contains(t, err.Error(), "Book not available")
}

func TestLoanBookNoCopiesLeft(t *testing.T) {
	svc, books, _ := newLoanFixture(t)
	book := seedBook(t, books, 4, 1)

	_, err := svc.LoanBook(context.Background(), uuid.NewString(), book.ID)
	require.NoError(t, err)

	_, err = svc.LoanBook(context.Background(), uuid.NewString(), book.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrBadRequest)

	stored, err := books.FindByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.AvailableCopies)
}

func TestReturnBookRestoresAvailability(t *testing.T) {
	svc, books, _ := newLoanFixture(t)
	book := seedBook(t, books, 3, 1)

	loan, err := svc.LoanBook(context.Background(), uuid.NewString(), book.ID)
	require.NoError(t, err)

	returned, err := svc.ReturnBook(context.Background(), loan.ID)
	require.NoError(t, err)
	assert.True(t, returned.Returned)

	stored, err := books.FindByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.AvailableCopies)
}

func TestReturnBookUnknownLoan(t *testing.T) {
	svc, _, _ := newLoanFixture(t)

	_, err := svc.ReturnBook(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrBadRequest)
	assert.Contains(t, err.Error(), "Loan not found")
}

func TestReturnBookTwiceFails(t *testing.T) {
	svc, books, _ := newLoanFixture(t)
	book := seedBook(t, books, 3, 2)

	loan, err := svc.LoanBook(context.Background(), uuid.NewString(), book.ID)
	require.NoError(t, err)

	_, err = svc.ReturnBook(context.Background(), loan.ID)
	require.NoError(t, err)

	_, err = svc.ReturnBook(context.Background(), loan.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrBadRequest)

	// The second call must not inflate the count past total.
	stored, err := books.FindByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.AvailableCopies)
}

// Last-copy contention: B can only loan after A returns.
func TestLastCopyLifecycle(t *testing.T) {
	svc, books, _ := newLoanFixture(t)
	book := seedBook(t, books, 5, 1)
	customerA, customerB := uuid.NewString(), uuid.NewString()
	ctx := context.Background()

	loanA, err := svc.LoanBook(ctx, customerA, book.ID)
	require.NoError(t, err)

	stored, _ := books.FindByID(ctx, book.ID)
	assert.Equal(t, 0, stored.AvailableCopies)

	_, err = svc.LoanBook(ctx, customerB, book.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrBadRequest)

	_, err = svc.ReturnBook(ctx, loanA.ID)
	require.NoError(t, err)

	stored, _ = books.FindByID(ctx, book.ID)
	assert.Equal(t, 1, stored.AvailableCopies)

	loanB, err := svc.LoanBook(ctx, customerB, book.ID)
	require.NoError(t, err)
	assert.Equal(t, customerB, loanB.UserID)

	// Invariant held throughout: 0 <= available <= total.
	stored, _ = books.FindByID(ctx, book.ID)
	assert.GreaterOrEqual(t, stored.AvailableCopies, 0)
	assert.LessOrEqual(t, stored.AvailableCopies, stored.TotalCopies)
}

func TestGetLoansByUserIncludesClosed(t *testing.T) {
	svc, books, _ := newLoanFixture(t)
	book := seedBook(t, books, 5, 2)
	userID := uuid.NewString()
	ctx := context.Background()

	first, err := svc.LoanBook(ctx, userID, book.ID)
	require.NoError(t, err)
	_, err = svc.ReturnBook(ctx, first.ID)
	require.NoError(t, err)
	_, err = svc.LoanBook(ctx, userID, book.ID)
	require.NoError(t, err)

	loans, err := svc.GetLoansByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.True(t, loans[0].Returned)
	assert.False(t, loans[1].Returned)
}

func TestGetAllLoansResolvesBooks(t *testing.T) {
	svc, books, _ := newLoanFixture(t)
	book := seedBook(t, books, 4, 1)
	ctx := context.Background()

	_, err := svc.LoanBook(ctx, uuid.NewString(), book.ID)
	require.NoError(t, err)

	loans, err := svc.GetAllLoans(ctx)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	require.NotNil(t, loans[0].Book)
	assert.Equal(t, book.Title, loans[0].Book.Title)
}

func TestLoanShapeForRole(t *testing.T) {
	svc, books, _ := newLoanFixture(t)
	book := seedBook(t, books, 5, 1)

	loan, err := svc.LoanBook(context.Background(), uuid.NewString(), book.ID)
	require.NoError(t, err)

	customerView, ok := svc.ShapeForRole(loan, model.RoleCustomer).(*model.CustomerLoanView)
	require.True(t, ok)
	assert.Equal(t, loan.ID, customerView.ID)
	assert.Equal(t, loan.BookID, customerView.BookID)
	assert.Equal(t, loan.DueDate, customerView.DueDate)

	employeeView, ok := svc.ShapeForRole(loan, model.RoleEmployee).(*model.Loan)
	require.True(t, ok)
	assert.Equal(t, loan, employeeView)
}
