package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"library_api/internal/common"
	"library_api/internal/domain/model"
)

type LoanRepository interface {
	Create(ctx context.Context, tx *sql.Tx, loan *model.Loan) error
	FindByID(ctx context.Context, id string) (*model.Loan, error)
	FindByUser(ctx context.Context, userID string) ([]model.Loan, error)
	// FindAllWithBooks resolves the book association for the employee
	// all-loans view.
	FindAllWithBooks(ctx context.Context) ([]model.Loan, error)
	MarkReturned(ctx context.Context, tx *sql.Tx, id string) error
	HasOpenLoanForBook(ctx context.Context, bookID string) (bool, error)
	// SoonestDueDateForBook returns the earliest due date among a book's
	// open loans, or nil when none exist.
	SoonestDueDateForBook(ctx context.Context, bookID string) (*time.Time, error)
}

type pgLoanRepository struct {
	db *sql.DB
}

func NewPgLoanRepository(db *sql.DB) LoanRepository {
	return &pgLoanRepository{db: db}
}

func (r *pgLoanRepository) Create(ctx context.Context, tx *sql.Tx, loan *model.Loan) error {
	query := `INSERT INTO loans (id, user_id, book_id, due_date, returned)
	          VALUES ($1, $2, $3, $4, $5)`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, loan.ID, loan.UserID, loan.BookID, loan.DueDate, loan.Returned)
	} else {
		_, err = r.db.ExecContext(ctx, query, loan.ID, loan.UserID, loan.BookID, loan.DueDate, loan.Returned)
	}
	if err != nil {
		return fmt.Errorf("pgLoanRepository.Create: %w", err)
	}
	return nil
}

func (r *pgLoanRepository) FindByID(ctx context.Context, id string) (*model.Loan, error) {
	if !isUUID(id) {
		return nil, common.ErrNotFound
	}
	query := `SELECT id, user_id, book_id, due_date, returned, created_at, updated_at
	          FROM loans WHERE id = $1`
	loan := &model.Loan{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&loan.ID, &loan.UserID, &loan.BookID, &loan.DueDate, &loan.Returned, &loan.CreatedAt, &loan.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgLoanRepository.FindByID: %w", err)
	}
	return loan, nil
}

func (r *pgLoanRepository) FindByUser(ctx context.Context, userID string) ([]model.Loan, error) {
	query := `SELECT id, user_id, book_id, due_date, returned, created_at, updated_at
	          FROM loans WHERE user_id = $1 ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgLoanRepository.FindByUser query: %w", err)
	}
	defer rows.Close()

	loans := []model.Loan{}
	for rows.Next() {
		var l model.Loan
		if err := rows.Scan(&l.ID, &l.UserID, &l.BookID, &l.DueDate, &l.Returned, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgLoanRepository.FindByUser scan: %w", err)
		}
		loans = append(loans, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgLoanRepository.FindByUser rows.Err: %w", err)
	}
	return loans, nil
}

func (r *pgLoanRepository) FindAllWithBooks(ctx context.Context) ([]model.Loan, error) {
	query := `SELECT l.id, l.user_id, l.book_id, l.due_date, l.returned, l.created_at, l.updated_at,
	                 b.id, b.title, b.author, b.genre, b.rating, b.total_copies, b.available_copies, b.created_at, b.updated_at
	          FROM loans l
	          JOIN books b ON l.book_id = b.id
	          ORDER BY l.created_at ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgLoanRepository.FindAllWithBooks query: %w", err)
	}
	defer rows.Close()

	loans := []model.Loan{}
	for rows.Next() {
		var l model.Loan
		var b model.Book
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.BookID, &l.DueDate, &l.Returned, &l.CreatedAt, &l.UpdatedAt,
			&b.ID, &b.Title, &b.Author, &b.Genre, &b.Rating, &b.TotalCopies, &b.AvailableCopies, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("pgLoanRepository.FindAllWithBooks scan: %w", err)
		}
		l.Book = &b
		loans = append(loans, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgLoanRepository.FindAllWithBooks rows.Err: %w", err)
	}
	return loans, nil
}

func (r *pgLoanRepository) MarkReturned(ctx context.Context, tx *sql.Tx, id string) error {
	query := `UPDATE loans SET returned = TRUE, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $1 AND returned = FALSE`

	var res sql.Result
	var err error
	if tx != nil {
		res, err = tx.ExecContext(ctx, query, id)
	} else {
		res, err = r.db.ExecContext(ctx, query, id)
	}
	if err != nil {
		return fmt.Errorf("pgLoanRepository.MarkReturned: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgLoanRepository.MarkReturned rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgLoanRepository) HasOpenLoanForBook(ctx context.Context, bookID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM loans WHERE book_id = $1 AND returned = FALSE)`
	if err := r.db.QueryRowContext(ctx, query, bookID).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgLoanRepository.HasOpenLoanForBook: %w", err)
	}
	return exists, nil
}

func (r *pgLoanRepository) SoonestDueDateForBook(ctx context.Context, bookID string) (*time.Time, error) {
	var due time.Time
	query := `SELECT due_date FROM loans WHERE book_id = $1 AND returned = FALSE
	          ORDER BY due_date ASC LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, bookID).Scan(&due)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("pgLoanRepository.SoonestDueDateForBook: %w", err)
	}
	return &due, nil
}
