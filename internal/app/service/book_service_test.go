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

func newBookFixture(t *testing.T) (*BookService, *testutil.InMemoryBookRepository, *testutil.InMemoryLoanRepository) {
	t.Helper()
	books := testutil.NewInMemoryBookRepository()
	loans := testutil.NewInMemoryLoanRepository(books)
	return NewBookService(books, loans), books, loans
}

func TestCreateBookStartsFullyAvailable(t *testing.T) {
	svc, _, _ := newBookFixture(t)

	book, err := svc.CreateBook(context.Background(), CreateBookRequest{
		Title:       "Dune",
		Author:      "Frank Herbert",
		Genre:       "Science Fiction",
		Rating:      5,
		TotalCopies: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, book.TotalCopies)
	assert.Equal(t, 4, book.AvailableCopies)
	assert.NotEmpty(t, book.ID)
}

func TestCreateBookValidation(t *testing.T) {
	svc, _, _ := newBookFixture(t)
	ctx := context.Background()

	cases := map[string]CreateBookRequest{
		"missing title":  {Author: "a", Genre: "g", Rating: 3, TotalCopies: 1},
		"missing author": {Title: "t", Genre: "g", Rating: 3, TotalCopies: 1},
		"missing genre":  {Title: "t", Author: "a", Rating: 3, TotalCopies: 1},
		"rating too low": {Title: "t", Author: "a", Genre: "g", Rating: 0, TotalCopies: 1},
		"rating too high": {Title: "t", Author: "a", Genre: "g", Rating: 6, TotalCopies: 1},
		"negative copies": {Title: "t", Author: "a", Genre: "g", Rating: 3, TotalCopies: -1},
	}
	for name, req := range cases {
		_, err := svc.CreateBook(ctx, req)
		assert.ErrorIs(t, err, common.ErrValidation, name)
	}

	// Zero copies is allowed.
	_, err := svc.CreateBook(ctx, CreateBookRequest{Title: "t", Author: "a", Genre: "g", Rating: 3, TotalCopies: 0})
	assert.NoError(t, err)
}

func TestUpdateBookPartial(t *testing.T) {
	svc, _, _ := newBookFixture(t)
	ctx := context.Background()

	book, err := svc.CreateBook(ctx, CreateBookRequest{
		Title: "Original", Author: "Author", Genre: "Fiction", Rating: 4, TotalCopies: 2,
	})
	require.NoError(t, err)

	title := "X"
	updated, err := svc.UpdateBook(ctx, book.ID, UpdateBookRequest{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "X", updated.Title)
	// Everything else untouched.
	assert.Equal(t, "Author", updated.Author)
	assert.Equal(t, "Fiction", updated.Genre)
	assert.Equal(t, 4, updated.Rating)
	assert.Equal(t, 2, updated.TotalCopies)
	assert.Equal(t, 2, updated.AvailableCopies)
}

func TestUpdateBookNotFound(t *testing.T) {
	svc, _, _ := newBookFixture(t)
	title := "X"
	_, err := svc.UpdateBook(context.Background(), uuid.NewString(), UpdateBookRequest{Title: &title})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateBookAvailableCopiesBounded(t *testing.T) {
	svc, _, _ := newBookFixture(t)
	ctx := context.Background()

	book, err := svc.CreateBook(ctx, CreateBookRequest{
		Title: "t", Author: "a", Genre: "g", Rating: 3, TotalCopies: 2,
	})
	require.NoError(t, err)

	tooMany := 3
	_, err = svc.UpdateBook(ctx, book.ID, UpdateBookRequest{AvailableCopies: &tooMany})
	assert.ErrorIs(t, err, common.ErrValidation)

	fine := 1
	updated, err := svc.UpdateBook(ctx, book.ID, UpdateBookRequest{AvailableCopies: &fine})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.AvailableCopies)
}

func TestDeleteBookWithOpenLoanConflicts(t *testing.T) {
	svc, books, loans := newBookFixture(t)
	ctx := context.Background()

	book, err := svc.CreateBook(ctx, CreateBookRequest{
		Title: "t", Author: "a", Genre: "g", Rating: 3, TotalCopies: 1,
	})
	require.NoError(t, err)

	loan := &model.Loan{
		ID: uuid.NewString(), UserID: uuid.NewString(), BookID: book.ID,
		DueDate: time.Now().AddDate(0, 0, 7),
	}
	require.NoError(t, loans.Create(ctx, nil, loan))

	err = svc.DeleteBook(ctx, book.ID)
	assert.ErrorIs(t, err, common.ErrConflict)

	// Closing the loan clears the conflict.
	require.NoError(t, loans.MarkReturned(ctx, nil, loan.ID))
	require.NoError(t, svc.DeleteBook(ctx, book.ID))

	_, err = books.FindByID(ctx, book.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteBookNotFound(t *testing.T) {
	svc, _, _ := newBookFixture(t)
	err := svc.DeleteBook(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListBooksPagination(t *testing.T) {
	svc, _, _ := newBookFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.CreateBook(ctx, CreateBookRequest{
			Title: "t", Author: "a", Genre: "g", Rating: 3, TotalCopies: 1,
		})
		require.NoError(t, err)
	}

	page1, total, err := svc.ListBooks(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page1, 2)

	page3, total, err := svc.ListBooks(ctx, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page3, 1)
}

func TestShapeForRoleEmployeeGetsFullRecord(t *testing.T) {
	svc, _, _ := newBookFixture(t)
	ctx := context.Background()

	book, err := svc.CreateBook(ctx, CreateBookRequest{
		Title: "t", Author: "a", Genre: "g", Rating: 3, TotalCopies: 0,
	})
	require.NoError(t, err)

	shaped, err := svc.ShapeForRole(ctx, book, model.RoleEmployee)
	require.NoError(t, err)
	full, ok := shaped.(*model.Book)
	require.True(t, ok)
	assert.Equal(t, book.TotalCopies, full.TotalCopies)
}

func TestShapeForRoleCustomerWithCopies(t *testing.T) {
	svc, _, _ := newBookFixture(t)
	ctx := context.Background()

	book, err := svc.CreateBook(ctx, CreateBookRequest{
		Title: "t", Author: "a", Genre: "g", Rating: 3, TotalCopies: 2,
	})
	require.NoError(t, err)

	shaped, err := svc.ShapeForRole(ctx, book, model.RoleCustomer)
	require.NoError(t, err)
	view, ok := shaped.(*model.CustomerBookView)
	require.True(t, ok)

	require.NotNil(t, view.AvailableCopies)
	assert.Equal(t, 2, *view.AvailableCopies)
	assert.Nil(t, view.AvailableAt)
}

func TestShapeForRoleCustomerNoCopies(t *testing.T) {
	svc, _, loans := newBookFixture(t)
	ctx := context.Background()

	book, err := svc.CreateBook(ctx, CreateBookRequest{
		Title: "t", Author: "a", Genre: "g", Rating: 3, TotalCopies: 0,
	})
	require.NoError(t, err)

	soon := time.Now().AddDate(0, 0, 3)
	later := time.Now().AddDate(0, 0, 9)
	for _, due := range []time.Time{later, soon} {
		require.NoError(t, loans.Create(ctx, nil, &model.Loan{
			ID: uuid.NewString(), UserID: uuid.NewString(), BookID: book.ID, DueDate: due,
		}))
	}

	shaped, err := svc.ShapeForRole(ctx, book, model.RoleCustomer)
	require.NoError(t, err)
	view, ok := shaped.(*model.CustomerBookView)
	require.True(t, ok)

	// availableCopies and availableAt are mutually exclusive.
	assert.Nil(t, view.AvailableCopies)
	require.NotNil(t, view.AvailableAt)
	assert.True(t, view.AvailableAt.Equal(soon))
}

func TestShapeForRoleCustomerNoCopiesNoLoans(t *testing.T) {
	svc, _, _ := newBookFixture(t)
	ctx := context.Background()

	book, err := svc.CreateBook(ctx, CreateBookRequest{
		Title: "t", Author: "a", Genre: "g", Rating: 3, TotalCopies: 0,
	})
	require.NoError(t, err)

	shaped, err := svc.ShapeForRole(ctx, book, model.RoleCustomer)
	require.NoError(t, err)
	view := shaped.(*model.CustomerBookView)

	// No open loan to predict availability from; not an error.
	assert.Nil(t, view.AvailableCopies)
	assert.Nil(t, view.AvailableAt)
}
