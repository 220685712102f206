package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"library_api/internal/common"
	"library_api/internal/domain/model"

	"github.com/google/uuid"
)

// isUUID rejects malformed ids before they reach Postgres, where an invalid
// uuid literal would surface as a driver error instead of a clean miss.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	FindByID(ctx context.Context, id string) (*model.Book, error)
	List(ctx context.Context, limit, offset int) ([]model.Book, int, error)
	Update(ctx context.Context, book *model.Book) error
	Delete(ctx context.Context, id string) error

	// DecrementAvailable is the conditional availability update used when a
	// loan is created: it only fires while copies remain, so concurrent
	// requests for the last copy cannot drive the count negative.
	DecrementAvailable(ctx context.Context, tx *sql.Tx, id string) (bool, error)
	// IncrementAvailable is the mirror update on return, bounded by the
	// total copy count.
	IncrementAvailable(ctx context.Context, tx *sql.Tx, id string) (bool, error)
}

type pgBookRepository struct {
	db *sql.DB
}

func NewPgBookRepository(db *sql.DB) BookRepository {
	return &pgBookRepository{db: db}
}

func (r *pgBookRepository) Create(ctx context.Context, book *model.Book) error {
	query := `INSERT INTO books (id, title, author, genre, rating, total_copies, available_copies)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, book.ID, book.Title, book.Author, book.Genre, book.Rating, book.TotalCopies, book.AvailableCopies)
	if err != nil {
		return fmt.Errorf("pgBookRepository.Create: %w", err)
	}
	return nil
}

func (r *pgBookRepository) FindByID(ctx context.Context, id string) (*model.Book, error) {
	if !isUUID(id) {
		return nil, common.ErrNotFound
	}
	query := `SELECT id, title, author, genre, rating, total_copies, available_copies, created_at, updated_at
	          FROM books WHERE id = $1`
	book := &model.Book{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&book.ID, &book.Title, &book.Author, &book.Genre, &book.Rating, &book.TotalCopies, &book.AvailableCopies, &book.CreatedAt, &book.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgBookRepository.FindByID: %w", err)
	}
	return book, nil
}

func (r *pgBookRepository) List(ctx context.Context, limit, offset int) ([]model.Book, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgBookRepository.List count: %w", err)
	}

	query := `SELECT id, title, author, genre, rating, total_copies, available_copies, created_at, updated_at
	          FROM books ORDER BY created_at ASC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgBookRepository.List query: %w", err)
	}
	defer rows.Close()

	books := []model.Book{}
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Rating, &b.TotalCopies, &b.AvailableCopies, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("pgBookRepository.List scan: %w", err)
		}
		books = append(books, b)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgBookRepository.List rows.Err: %w", err)
	}
	return books, total, nil
}

func (r *pgBookRepository) Update(ctx context.Context, book *model.Book) error {
	query := `UPDATE books SET
	            title = $1, author = $2, genre = $3, rating = $4,
	            total_copies = $5, available_copies = $6, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $7`
	res, err := r.db.ExecContext(ctx, query, book.Title, book.Author, book.Genre, book.Rating, book.TotalCopies, book.AvailableCopies, book.ID)
	if err != nil {
		return fmt.Errorf("pgBookRepository.Update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgBookRepository.Update rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgBookRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return common.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgBookRepository.Delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgBookRepository.Delete rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgBookRepository) DecrementAvailable(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	query := `UPDATE books SET available_copies = available_copies - 1, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $1 AND available_copies > 0`
	return r.condUpdate(ctx, tx, query, id, "DecrementAvailable")
}

func (r *pgBookRepository) IncrementAvailable(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	query := `UPDATE books SET available_copies = available_copies + 1, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $1 AND available_copies < total_copies`
	return r.condUpdate(ctx, tx, query, id, "IncrementAvailable")
}

func (r *pgBookRepository) condUpdate(ctx context.Context, tx *sql.Tx, query, id, op string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	var res sql.Result
	var err error
	if tx != nil {
		res, err = tx.ExecContext(ctx, query, id)
	} else {
		res, err = r.db.ExecContext(ctx, query, id)
	}
	if err != nil {
		return false, fmt.Errorf("pgBookRepository.%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgBookRepository.%s rows affected: %w", op, err)
	}
	return affected > 0, nil
}
