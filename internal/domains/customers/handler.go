package customers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sangkips/customer-records-service/internal/domains/customers/models"
	"github.com/sangkips/customer-records-service/internal/handlers"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report field errors under their json names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type Handler struct {
	svc *Service
}

func NewHandler(db models.DBTX, events EventsRepository) *Handler {
	repo := NewRepository(db)
	return &Handler{svc: NewService(repo, events)}
}

func (h *Handler) RegisterCustomerRoutes(r chi.Router) {
	r.Get("/", h.searchCustomers)
	r.Post("/", h.createCustomer)
	r.Post("/bulk", h.bulkCreateCustomers)
	r.Get("/{id}", h.getCustomer)
	r.Put("/{id}", h.updateCustomer)
	r.Delete("/{id}", h.deleteCustomer)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body: "+err.Error())
		return
	}

	if fieldErrors := validateRequest(req); fieldErrors != nil {
		handlers.RespondWithValidationError(w, "VALIDATION_FAILED", "Validation failed", fieldErrors)
		return
	}

	customer, err := h.svc.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			handlers.RespondWithError(w, http.StatusConflict, "DUPLICATE_EMAIL", "A customer with email "+req.Email+" already exists")
			return
		}
		log.Error().Err(err).Msg("Failed to create customer")
		handlers.RespondWithError(w, http.StatusInternalServerError, "CUSTOMER_CREATE_FAILED", "Failed to create customer")
		return
	}

	w.Header().Set("Location", "/api/customers/"+customer.ID)
	handlers.RespondWithJSON(w, http.StatusCreated, customer)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handlers.RespondWithError(w, http.StatusBadRequest, "INVALID_CUSTOMER_ID", "Invalid customer ID format")
		return
	}

	customer, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			handlers.RespondWithError(w, http.StatusNotFound, "CUSTOMER_NOT_FOUND", "Customer with ID "+id.String()+" not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get customer")
		handlers.RespondWithError(w, http.StatusInternalServerError, "CUSTOMER_GET_FAILED", "Failed to get customer")
		return
	}

	handlers.RespondWithJSON(w, http.StatusOK, customer)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handlers.RespondWithError(w, http.StatusBadRequest, "INVALID_CUSTOMER_ID", "Invalid customer ID format")
		return
	}

	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body: "+err.Error())
		return
	}

	if fieldErrors := validateRequest(req); fieldErrors != nil {
		handlers.RespondWithValidationError(w, "VALIDATION_FAILED", "Validation failed", fieldErrors)
		return
	}

	customer, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			handlers.RespondWithError(w, http.StatusNotFound, "CUSTOMER_NOT_FOUND", "Customer with ID "+id.String()+" not found")
		case errors.Is(err, ErrDuplicateEmail):
			handlers.RespondWithError(w, http.StatusConflict, "DUPLICATE_EMAIL", "A customer with email "+req.Email+" already exists")
		default:
			log.Error().Err(err).Msg("Failed to update customer")
			handlers.RespondWithError(w, http.StatusInternalServerError, "CUSTOMER_UPDATE_FAILED", "Failed to update customer")
		}
		return
	}

	handlers.RespondWithJSON(w, http.StatusOK, customer)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handlers.RespondWithError(w, http.StatusBadRequest, "INVALID_CUSTOMER_ID", "Invalid customer ID format")
		return
	}

	if err := h.svc.SoftDelete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			handlers.RespondWithError(w, http.StatusNotFound, "CUSTOMER_NOT_FOUND", "Customer with ID "+id.String()+" not found")
			return
		}
		log.Error().Err(err).Msg("Failed to delete customer")
		handlers.RespondWithError(w, http.StatusInternalServerError, "CUSTOMER_DELETE_FAILED", "Failed to delete customer")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) searchCustomers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := SearchParams{
		Search:    query.Get("search"),
		Email:     query.Get("email"),
		SortBy:    query.Get("sortBy"),
		SortOrder: query.Get("sortOrder"),
	}

	if pageStr := query.Get("page"); pageStr != "" {
		if page, err := strconv.ParseInt(pageStr, 10, 32); err == nil {
			params.Page = int32(page)
		}
	}
	if pageSizeStr := query.Get("pageSize"); pageSizeStr != "" {
		if pageSize, err := strconv.ParseInt(pageSizeStr, 10, 32); err == nil {
			params.PageSize = int32(pageSize)
		}
	}

	var err error
	if params.DateFrom, err = parseDateParam(query.Get("dateFrom")); err != nil {
		handlers.RespondWithError(w, http.StatusBadRequest, "INVALID_DATE", "dateFrom must be an RFC 3339 timestamp or YYYY-MM-DD date")
		return
	}
	if params.DateTo, err = parseDateParam(query.Get("dateTo")); err != nil {
		handlers.RespondWithError(w, http.StatusBadRequest, "INVALID_DATE", "dateTo must be an RFC 3339 timestamp or YYYY-MM-DD date")
		return
	}

	response, err := h.svc.Search(r.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSortField):
			handlers.RespondWithError(w, http.StatusBadRequest, "INVALID_SORT_FIELD", "sortBy must be one of: name, email, createdAt")
		case errors.Is(err, ErrInvalidSortOrder):
			handlers.RespondWithError(w, http.StatusBadRequest, "INVALID_SORT_ORDER", "sortOrder must be asc or desc")
		default:
			log.Error().Err(err).Msg("Failed to search customers")
			handlers.RespondWithError(w, http.StatusInternalServerError, "CUSTOMER_SEARCH_FAILED", "Failed to search customers")
		}
		return
	}

	handlers.RespondWithJSON(w, http.StatusOK, response)
}

type BulkCreateRequest struct {
	Count int `json:"count"`
}

func (h *Handler) bulkCreateCustomers(w http.ResponseWriter, r *http.Request) {
	var req BulkCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.BulkCreate(r.Context(), req.Count)
	if err != nil {
		if errors.Is(err, ErrInvalidBulkCount) {
			handlers.RespondWithError(w, http.StatusBadRequest, "INVALID_COUNT", "count must be between 1 and 1000")
			return
		}
		log.Error().Err(err).Msg("Failed to bulk create customers")
		handlers.RespondWithError(w, http.StatusInternalServerError, "BULK_CREATE_FAILED", "Failed to bulk create customers")
		return
	}

	handlers.RespondWithJSON(w, http.StatusOK, result)
}

func validateRequest(req CreateCustomerRequest) map[string]string {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	fieldErrors := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		fieldErrors["request"] = err.Error()
		return fieldErrors
	}

	for _, fieldErr := range validationErrors {
		switch fieldErr.Tag() {
		case "required":
			fieldErrors[fieldErr.Field()] = fieldErr.Field() + " is required"
		case "email":
			fieldErrors[fieldErr.Field()] = fieldErr.Field() + " must be a valid email address"
		case "max":
			fieldErrors[fieldErr.Field()] = fieldErr.Field() + " must be at most " + fieldErr.Param() + " characters"
		default:
			fieldErrors[fieldErr.Field()] = fieldErr.Field() + " is invalid"
		}
	}
	return fieldErrors
}

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
