package customers

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/sangkips/customer-records-service/internal/domains/customers/models"
)

type Repository interface {
	CreateCustomer(ctx context.Context, arg models.CreateCustomerParams) (models.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (models.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (models.Customer, error)
	UpdateCustomer(ctx context.Context, arg models.UpdateCustomerParams) (models.Customer, error)
	SoftDeleteCustomer(ctx context.Context, id uuid.UUID) error
	SearchCustomers(ctx context.Context, arg models.SearchCustomersParams) ([]models.Customer, error)
	CountCustomers(ctx context.Context, arg models.CountCustomersParams) (int64, error)
	CustomerExistsIgnoringDeleted(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	q *models.Queries
}

func NewRepository(db models.DBTX) Repository {
	return &repository{q: models.New(db)}
}

// isUniqueViolation matches the partial unique index on live emails.
// The service runs on the pgx driver, integration tests on lib/pq.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *repository) CreateCustomer(ctx context.Context, arg models.CreateCustomerParams) (models.Customer, error) {
	customer, err := r.q.CreateCustomer(ctx, arg)
	if isUniqueViolation(err) {
		return models.Customer{}, ErrDuplicateEmail
	}
	return customer, err
}

func (r *repository) GetCustomer(ctx context.Context, id uuid.UUID) (models.Customer, error) {
	customer, err := r.q.GetCustomer(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Customer{}, ErrNotFound
	}
	return customer, err
}

func (r *repository) GetCustomerByEmail(ctx context.Context, email string) (models.Customer, error) {
	customer, err := r.q.GetCustomerByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Customer{}, ErrNotFound
	}
	return customer, err
}

func (r *repository) UpdateCustomer(ctx context.Context, arg models.UpdateCustomerParams) (models.Customer, error) {
	customer, err := r.q.UpdateCustomer(ctx, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Customer{}, ErrNotFound
	}
	if isUniqueViolation(err) {
		return models.Customer{}, ErrDuplicateEmail
	}
	return customer, err
}

func (r *repository) SoftDeleteCustomer(ctx context.Context, id uuid.UUID) error {
	err := r.q.SoftDeleteCustomer(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *repository) SearchCustomers(ctx context.Context, arg models.SearchCustomersParams) ([]models.Customer, error) {
	return r.q.SearchCustomers(ctx, arg)
}

func (r *repository) CountCustomers(ctx context.Context, arg models.CountCustomersParams) (int64, error) {
	return r.q.CountCustomers(ctx, arg)
}

func (r *repository) CustomerExistsIgnoringDeleted(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.q.CustomerExistsIgnoringDeleted(ctx, id)
}
