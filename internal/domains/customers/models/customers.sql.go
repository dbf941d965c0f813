package models

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const createCustomer = `
INSERT INTO customers (id, name, email, phone, address)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, name, email, phone, address, is_deleted, created_at, updated_at`

type CreateCustomerParams struct {
	ID      uuid.UUID
	Name    string
	Email   string
	Phone   sql.NullString
	Address sql.NullString
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	row := q.db.QueryRowContext(ctx, createCustomer,
		arg.ID,
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.Address,
	)
	var c Customer
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Address,
		&c.IsDeleted,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

const getCustomer = `
SELECT id, name, email, phone, address, is_deleted, created_at, updated_at
FROM customers
WHERE id = $1 AND NOT is_deleted`

func (q *Queries) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	row := q.db.QueryRowContext(ctx, getCustomer, id)
	var c Customer
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Address,
		&c.IsDeleted,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

const getCustomerByEmail = `
SELECT id, name, email, phone, address, is_deleted, created_at, updated_at
FROM customers
WHERE LOWER(email) = LOWER($1) AND NOT is_deleted`

func (q *Queries) GetCustomerByEmail(ctx context.Context, email string) (Customer, error) {
	row := q.db.QueryRowContext(ctx, getCustomerByEmail, email)
	var c Customer
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Address,
		&c.IsDeleted,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

const updateCustomer = `
UPDATE customers
SET name = $2, email = $3, phone = $4, address = $5, updated_at = now()
WHERE id = $1 AND NOT is_deleted
RETURNING id, name, email, phone, address, is_deleted, created_at, updated_at`

type UpdateCustomerParams struct {
	ID      uuid.UUID
	Name    string
	Email   string
	Phone   sql.NullString
	Address sql.NullString
}

func (q *Queries) UpdateCustomer(ctx context.Context, arg UpdateCustomerParams) (Customer, error) {
	row := q.db.QueryRowContext(ctx, updateCustomer,
		arg.ID,
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.Address,
	)
	var c Customer
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Address,
		&c.IsDeleted,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

const softDeleteCustomer = `
UPDATE customers
SET is_deleted = TRUE, updated_at = now()
WHERE id = $1 AND NOT is_deleted`

func (q *Queries) SoftDeleteCustomer(ctx context.Context, id uuid.UUID) error {
	result, err := q.db.ExecContext(ctx, softDeleteCustomer, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const customerExistsIgnoringDeleted = `
SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`

// CustomerExistsIgnoringDeleted reports physical presence regardless of the
// soft-delete flag.
func (q *Queries) CustomerExistsIgnoringDeleted(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, customerExistsIgnoringDeleted, id).Scan(&exists)
	return exists, err
}

// SortColumn maps an API sort key to its column. Callers must reject unknown
// keys before building a query.
func SortColumn(field string) (string, bool) {
	col, ok := map[string]string{
		"name":      "name",
		"email":     "email",
		"createdAt": "created_at",
	}[field]
	return col, ok
}

// EscapeLike escapes LIKE wildcards so a search term matches literally.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

const searchCustomers = `
SELECT id, name, email, phone, address, is_deleted, created_at, updated_at
FROM customers
WHERE NOT is_deleted
  AND ($1::text IS NULL OR name ILIKE '%%' || $1 || '%%' OR email ILIKE '%%' || $1 || '%%')
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at <= $3)
ORDER BY %s %s, id ASC
LIMIT $4 OFFSET $5`

type SearchCustomersParams struct {
	Search     sql.NullString
	DateFrom   sql.NullTime
	DateTo     sql.NullTime
	OrderBy    string
	Descending bool
	Limit      int32
	// int64: page*pageSize can exceed int32 for large page numbers
	Offset int64
}

func (q *Queries) SearchCustomers(ctx context.Context, arg SearchCustomersParams) ([]Customer, error) {
	// OrderBy carries a column name already validated by the caller;
	// anything else falls back to the default ordering
	orderBy := arg.OrderBy
	if orderBy != "name" && orderBy != "email" && orderBy != "created_at" {
		orderBy = "name"
	}
	direction := "ASC"
	if arg.Descending {
		direction = "DESC"
	}

	query := fmt.Sprintf(searchCustomers, orderBy, direction)
	rows, err := q.db.QueryContext(ctx, query,
		arg.Search,
		arg.DateFrom,
		arg.DateTo,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Customer{}
	for rows.Next() {
		var c Customer
		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Email,
			&c.Phone,
			&c.Address,
			&c.IsDeleted,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countCustomers = `
SELECT COUNT(*)
FROM customers
WHERE NOT is_deleted
  AND ($1::text IS NULL OR name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at <= $3)`

type CountCustomersParams struct {
	Search   sql.NullString
	DateFrom sql.NullTime
	DateTo   sql.NullTime
}

func (q *Queries) CountCustomers(ctx context.Context, arg CountCustomersParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countCustomers,
		arg.Search,
		arg.DateFrom,
		arg.DateTo,
	).Scan(&count)
	return count, err
}
