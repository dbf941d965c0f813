package customers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sangkips/customer-records-service/internal/domains/customers/models"
	eventsModels "github.com/sangkips/customer-records-service/internal/domains/events/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxBulkCount    = 1000
)

// EventsRepository is the outbox surface the customer service writes to.
type EventsRepository interface {
	CreateEvent(ctx context.Context, arg eventsModels.CreateEventParams) (eventsModels.Event, error)
	CreateEventBatch(ctx context.Context, args []eventsModels.CreateEventParams) ([]eventsModels.Event, error)
}

type Service struct {
	repo   Repository
	events EventsRepository
}

// NewService wires the customer repository and the optional events outbox.
// A nil events repository disables event recording.
func NewService(repo Repository, events EventsRepository) *Service {
	return &Service{repo: repo, events: events}
}

type CreateCustomerRequest struct {
	Name    string  `json:"name" validate:"required,max=100"`
	Email   string  `json:"email" validate:"required,email,max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=20"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}

type CustomerResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

func toCustomerResponse(customer models.Customer) CustomerResponse {
	resp := CustomerResponse{
		ID:        customer.ID.String(),
		Name:      customer.Name,
		Email:     customer.Email,
		CreatedAt: customer.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: customer.UpdatedAt.UTC().Format(time.RFC3339),
	}

	if customer.Phone.Valid {
		resp.Phone = &customer.Phone.String
	}

	if customer.Address.Valid {
		resp.Address = &customer.Address.String
	}

	return resp
}

func (s *Service) Create(ctx context.Context, req CreateCustomerRequest) (CustomerResponse, error) {
	customer, err := s.repo.CreateCustomer(ctx, models.CreateCustomerParams{
		ID:      uuid.New(),
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   nullStringFromPtr(req.Phone),
		Address: nullStringFromPtr(req.Address),
	})
	if err != nil {
		return CustomerResponse{}, err
	}

	s.recordEvent(ctx, customer.ID, eventsModels.EventTypeCustomerCreated)
	return toCustomerResponse(customer), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (CustomerResponse, error) {
	customer, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return CustomerResponse{}, err
	}
	return toCustomerResponse(customer), nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req CreateCustomerRequest) (CustomerResponse, error) {
	customer, err := s.repo.UpdateCustomer(ctx, models.UpdateCustomerParams{
		ID:      id,
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   nullStringFromPtr(req.Phone),
		Address: nullStringFromPtr(req.Address),
	})
	if err != nil {
		return CustomerResponse{}, err
	}

	s.recordEvent(ctx, customer.ID, eventsModels.EventTypeCustomerUpdated)
	return toCustomerResponse(customer), nil
}

func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDeleteCustomer(ctx, id); err != nil {
		return err
	}

	s.recordEvent(ctx, id, eventsModels.EventTypeCustomerDeleted)
	return nil
}

type SearchParams struct {
	Page      int32
	PageSize  int32
	Search    string
	Email     string
	SortBy    string
	SortOrder string
	DateFrom  *time.Time
	DateTo    *time.Time
}

type SearchResponse struct {
	Items      []CustomerResponse `json:"items"`
	TotalCount int64              `json:"totalCount"`
	Page       int32              `json:"page"`
	PageSize   int32              `json:"pageSize"`
	TotalPages int32              `json:"totalPages"`
}

func (s *Service) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}

	// exact-email lookup short-circuits the filter pipeline
	if email := strings.TrimSpace(params.Email); email != "" {
		return s.searchByEmail(ctx, email, params)
	}

	sortBy := params.SortBy
	if sortBy == "" {
		sortBy = "name"
	}
	column, ok := models.SortColumn(sortBy)
	if !ok {
		return nil, ErrInvalidSortField
	}

	descending := false
	switch strings.ToLower(params.SortOrder) {
	case "", "asc":
	case "desc":
		descending = true
	default:
		return nil, ErrInvalidSortOrder
	}

	var search sql.NullString
	if term := strings.TrimSpace(params.Search); term != "" {
		search = sql.NullString{String: models.EscapeLike(term), Valid: true}
	}

	items, err := s.repo.SearchCustomers(ctx, models.SearchCustomersParams{
		Search:     search,
		DateFrom:   timeToNullTime(params.DateFrom),
		DateTo:     timeToNullTime(params.DateTo),
		OrderBy:    column,
		Descending: descending,
		Limit:      params.PageSize,
		Offset:     (int64(params.Page) - 1) * int64(params.PageSize),
	})
	if err != nil {
		return nil, err
	}

	totalCount, err := s.repo.CountCustomers(ctx, models.CountCustomersParams{
		Search:   search,
		DateFrom: timeToNullTime(params.DateFrom),
		DateTo:   timeToNullTime(params.DateTo),
	})
	if err != nil {
		return nil, err
	}

	response := make([]CustomerResponse, len(items))
	for i, customer := range items {
		response[i] = toCustomerResponse(customer)
	}

	return &SearchResponse{
		Items:      response,
		TotalCount: totalCount,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages(totalCount, params.PageSize),
	}, nil
}

func (s *Service) searchByEmail(ctx context.Context, email string, params SearchParams) (*SearchResponse, error) {
	result := &SearchResponse{
		Items:    []CustomerResponse{},
		Page:     params.Page,
		PageSize: params.PageSize,
	}

	customer, err := s.repo.GetCustomerByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	result.TotalCount = 1
	result.TotalPages = 1
	if params.Page == 1 {
		result.Items = []CustomerResponse{toCustomerResponse(customer)}
	}
	return result, nil
}

func totalPages(totalCount int64, pageSize int32) int32 {
	if totalCount == 0 {
		return 0
	}
	return int32((totalCount + int64(pageSize) - 1) / int64(pageSize))
}

type BulkCreateError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

type BulkCreateResult struct {
	SuccessCount     int                `json:"successCount"`
	FailureCount     int                `json:"failureCount"`
	CreatedCustomers []CustomerResponse `json:"createdCustomers"`
	Errors           []BulkCreateError  `json:"errors"`
}

// BulkCreate generates count random customers and persists each one as its own
// unit of work. A failed record is reported by batch index and never aborts the
// rest of the batch.
func (s *Service) BulkCreate(ctx context.Context, count int) (*BulkCreateResult, error) {
	if count < 1 || count > maxBulkCount {
		return nil, ErrInvalidBulkCount
	}

	candidates := GenerateCustomers(count)

	result := &BulkCreateResult{
		CreatedCustomers: []CustomerResponse{},
		Errors:           []BulkCreateError{},
	}
	var eventArgs []eventsModels.CreateEventParams

	for i, candidate := range candidates {
		customer, err := s.repo.CreateCustomer(ctx, models.CreateCustomerParams{
			ID:      uuid.New(),
			Name:    candidate.Name,
			Email:   candidate.Email,
			Phone:   sql.NullString{String: candidate.Phone, Valid: true},
			Address: sql.NullString{String: candidate.Address, Valid: true},
		})
		if err != nil {
			result.FailureCount++
			result.Errors = append(result.Errors, BulkCreateError{
				Index:   i,
				Message: bulkFailureMessage(err, candidate.Email),
			})
			continue
		}

		result.SuccessCount++
		result.CreatedCustomers = append(result.CreatedCustomers, toCustomerResponse(customer))
		eventArgs = append(eventArgs, eventsModels.CreateEventParams{
			ID:         uuid.New(),
			CustomerID: customer.ID,
			EventType:  eventsModels.EventTypeCustomerCreated,
		})
	}

	if s.events != nil && len(eventArgs) > 0 {
		if _, err := s.events.CreateEventBatch(ctx, eventArgs); err != nil {
			log.Warn().Err(err).Int("count", len(eventArgs)).Msg("failed to record bulk customer events")
		}
	}

	return result, nil
}

func bulkFailureMessage(err error, email string) string {
	if errors.Is(err, ErrDuplicateEmail) {
		return fmt.Sprintf("email already in use: %s", email)
	}
	return "failed to create customer: " + err.Error()
}

func (s *Service) recordEvent(ctx context.Context, customerID uuid.UUID, eventType string) {
	if s.events == nil {
		return
	}
	_, err := s.events.CreateEvent(ctx, eventsModels.CreateEventParams{
		ID:         uuid.New(),
		CustomerID: customerID,
		EventType:  eventType,
	})
	if err != nil {
		// event recording is best effort, the customer operation already succeeded
		log.Warn().Err(err).
			Str("customer_id", customerID.String()).
			Str("event_type", eventType).
			Msg("failed to record customer event")
	}
}

func nullStringFromPtr(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
