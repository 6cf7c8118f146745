// This file, `repository.go`, is the data access layer for expenses.
// Every statement is a single parameterized query, and every statement that
// reads or changes an existing row carries `AND user_id = $n` bound to the
// authenticated caller. Handlers never pass a user id taken from the body.

package expenses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/user/expenses-go/apperror"
	"github.com/user/expenses-go/db"
)

// Repository is owner-scoped: every method takes the authenticated user id
// and only touches rows whose user_id matches it. A row that exists but
// belongs to someone else is reported as NotFound.
type Repository interface {
	GetOne(ctx context.Context, ownerID, id int64) (*Expense, error)
	ListForOwner(ctx context.Context, ownerID int64) ([]Expense, error)
	Create(ctx context.Context, ownerID int64, in Input) (*Expense, error)
	Update(ctx context.Context, ownerID, id int64, in Input) (*Expense, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

// amount is read as text so NUMERIC precision survives into decimal.Decimal.
const expenseColumns = `id, user_id, category, description, amount::text, date, created_at`

// PostgresRepository is the pgx implementation of Repository.
type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository creates a repository backed by conn.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

var _ Repository = (*PostgresRepository)(nil)

// GetOne returns the expense with this id owned by ownerID.
func (r *PostgresRepository) GetOne(ctx context.Context, ownerID, id int64) (*Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1 AND user_id = $2`
	return r.queryOne(ctx, "get expense", id, query, id, ownerID)
}

// ListForOwner returns the owner's expenses, most recent date first. Rows
// sharing a date are ordered newest id first.
func (r *PostgresRepository) ListForOwner(ctx context.Context, ownerID int64) ([]Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = $1 ORDER BY date DESC, id DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, apperror.NewStorageError("failed to list expenses", err)
	}
	// rows must be closed to release the pooled connection.
	defer rows.Close()

	// Non-nil so an empty result renders as [] rather than null.
	list := []Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, apperror.NewStorageError("failed to scan expense", err)
		}
		list = append(list, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewStorageError("failed to list expenses", err)
	}
	return list, nil
}

// Create inserts a new expense owned by ownerID.
// The amount is sent as text and cast in SQL, so no float ever touches it.
func (r *PostgresRepository) Create(ctx context.Context, ownerID int64, in Input) (*Expense, error) {
	query := `INSERT INTO expenses (user_id, category, description, amount, date)
              VALUES ($1, $2, $3, $4::numeric, $5)
              RETURNING ` + expenseColumns
	return r.queryOne(ctx, "create expense", 0, query,
		ownerID, in.Category, in.Description, in.Amount.String(), in.Date.Time())
}

// Update overwrites the mutable fields of the owner's expense.
func (r *PostgresRepository) Update(ctx context.Context, ownerID, id int64, in Input) (*Expense, error) {
	query := `UPDATE expenses
              SET category = $1, description = $2, amount = $3::numeric, date = $4
              WHERE id = $5 AND user_id = $6
              RETURNING ` + expenseColumns
	return r.queryOne(ctx, "update expense", id, query,
		in.Category, in.Description, in.Amount.String(), in.Date.Time(), id, ownerID)
}

// Delete removes the owner's expense.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return apperror.NewStorageError("failed to delete expense", err)
	}
	// Zero rows: the id does not exist or belongs to someone else.
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

// queryOne runs a single-row statement. No row means id is missing or not
// owned by the caller.
func (r *PostgresRepository) queryOne(ctx context.Context, op string, id int64, query string, args ...any) (*Expense, error) {
	e, err := scanExpense(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, apperror.NewStorageError("failed to "+op, err)
	}
	return e, nil
}

func notFound(id int64) *apperror.AppError {
	return apperror.NewNotFoundError(fmt.Sprintf("expense %d not found", id), nil)
}

func scanExpense(row pgx.Row) (*Expense, error) {
	var (
		e      Expense
		amount string
		date   time.Time
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Category, &e.Description, &amount, &date, &e.CreatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	e.Amount = d
	e.Date = Date(date)
	return &e, nil
}
