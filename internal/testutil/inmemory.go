// Package testutil provides in-memory stand-ins for the persistence and
// session-store collaborators, used by service and HTTP tests.
package testutil

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"library_api/internal/common"
	"library_api/internal/domain/model"
	"library_api/internal/platform/cache"
)

// NoopTxManager satisfies database.TxManager without a database; repository
// fakes ignore the nil tx the same way pg repositories fall back to their
// pool.
type NoopTxManager struct{}

func (NoopTxManager) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

type InMemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]model.User
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{users: make(map[string]model.User)}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return common.ErrConflict
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *InMemoryUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *InMemoryUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	found := u
	return &found, nil
}

func (r *InMemoryUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (r *InMemoryUserRepository) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

func (r *InMemoryUserRepository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

type InMemoryBookRepository struct {
	mu    sync.Mutex
	order []string
	books map[string]model.Book
}

func NewInMemoryBookRepository() *InMemoryBookRepository {
	return &InMemoryBookRepository{books: make(map[string]model.Book)}
}

func (r *InMemoryBookRepository) Create(ctx context.Context, book *model.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, book.ID)
	r.books[book.ID] = *book
	return nil
}

func (r *InMemoryBookRepository) FindByID(ctx context.Context, id string) (*model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	found := b
	return &found, nil
}

func (r *InMemoryBookRepository) List(ctx context.Context, limit, offset int) ([]model.Book, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := len(r.order)
	books := []model.Book{}
	for i := offset; i < total && len(books) < limit; i++ {
		books = append(books, r.books[r.order[i]])
	}
	return books, total, nil
}

func (r *InMemoryBookRepository) Update(ctx context.Context, book *model.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[book.ID]; !ok {
		return common.ErrNotFound
	}
	r.books[book.ID] = *book
	return nil
}

func (r *InMemoryBookRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.books, id)
	for i, bid := range r.order {
		if bid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *InMemoryBookRepository) DecrementAvailable(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok || b.AvailableCopies <= 0 {
		return false, nil
	}
	b.AvailableCopies--
	r.books[id] = b
	return true, nil
}

func (r *InMemoryBookRepository) IncrementAvailable(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok || b.AvailableCopies >= b.TotalCopies {
		return false, nil
	}
	b.AvailableCopies++
	r.books[id] = b
	return true, nil
}

type InMemoryLoanRepository struct {
	mu    sync.Mutex
	order []string
	loans map[string]model.Loan
	books *InMemoryBookRepository
}

func NewInMemoryLoanRepository(books *InMemoryBookRepository) *InMemoryLoanRepository {
	return &InMemoryLoanRepository{loans: make(map[string]model.Loan), books: books}
}

func (r *InMemoryLoanRepository) Create(ctx context.Context, tx *sql.Tx, loan *model.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, loan.ID)
	r.loans[loan.ID] = *loan
	return nil
}

func (r *InMemoryLoanRepository) FindByID(ctx context.Context, id string) (*model.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loans[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	found := l
	return &found, nil
}

func (r *InMemoryLoanRepository) FindByUser(ctx context.Context, userID string) ([]model.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loans := []model.Loan{}
	for _, id := range r.order {
		if r.loans[id].UserID == userID {
			loans = append(loans, r.loans[id])
		}
	}
	return loans, nil
}

func (r *InMemoryLoanRepository) FindAllWithBooks(ctx context.Context) ([]model.Loan, error) {
	r.mu.Lock()
	ids := append([]string{}, r.order...)
	r.mu.Unlock()

	loans := []model.Loan{}
	for _, id := range ids {
		r.mu.Lock()
		l := r.loans[id]
		r.mu.Unlock()
		if book, err := r.books.FindByID(ctx, l.BookID); err == nil {
			l.Book = book
		}
		loans = append(loans, l)
	}
	return loans, nil
}

func (r *InMemoryLoanRepository) MarkReturned(ctx context.Context, tx *sql.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loans[id]
	if !ok || l.Returned {
		return common.ErrNotFound
	}
	l.Returned = true
	r.loans[id] = l
	return nil
}

func (r *InMemoryLoanRepository) HasOpenLoanForBook(ctx context.Context, bookID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.loans {
		if l.BookID == bookID && !l.Returned {
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemoryLoanRepository) SoonestDueDateForBook(ctx context.Context, bookID string) (*time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var soonest *time.Time
	for _, l := range r.loans {
		if l.BookID != bookID || l.Returned {
			continue
		}
		due := l.DueDate
		if soonest == nil || due.Before(*soonest) {
			soonest = &due
		}
	}
	return soonest, nil
}

type InMemoryTokenStore struct {
	mu      sync.Mutex
	entries map[string]string
	// SetErr, when non-nil, is returned by Set to exercise the degraded
	// store path.
	SetErr error
	GetErr error
}

func NewInMemoryTokenStore() *InMemoryTokenStore {
	return &InMemoryTokenStore{entries: make(map[string]string)}
}

func (s *InMemoryTokenStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if s.SetErr != nil {
		return s.SetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		s.entries[key] = value
	}
	return nil
}

func (s *InMemoryTokenStore) Get(ctx context.Context, key string) (string, error) {
	if s.GetErr != nil {
		return "", s.GetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (s *InMemoryTokenStore) Close() error { return nil }
