package customers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sangkips/customer-records-service/internal/domains/customers/models"
	"github.com/sangkips/customer-records-service/internal/handlers"
)

func newTestServer(repo Repository) *httptest.Server {
	h := &Handler{svc: NewService(repo, nil)}
	r := chi.NewRouter()
	r.Route("/api/customers", func(r chi.Router) {
		h.RegisterCustomerRoutes(r)
	})
	return httptest.NewServer(r)
}

func decodeErrorBody(t *testing.T, resp *http.Response) handlers.ErrorResponse {
	t.Helper()
	var body handlers.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	return body
}

func TestCreateCustomer_Created(t *testing.T) {
	repo := &mockRepository{}
	srv := newTestServer(repo)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/customers", "application/json",
		strings.NewReader(`{"name":"John Smith","email":"john@example.com","phone":"+1-555-123-4567"}`))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Got status %d, want 201", resp.StatusCode)
	}

	var customer CustomerResponse
	if err := json.NewDecoder(resp.Body).Decode(&customer); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	location := resp.Header.Get("Location")
	if location != "/api/customers/"+customer.ID {
		t.Errorf("Got Location %q, want %q", location, "/api/customers/"+customer.ID)
	}
	if customer.Phone == nil || *customer.Phone != "+1-555-123-4567" {
		t.Errorf("Phone not echoed back: %+v", customer.Phone)
	}
}

func TestCreateCustomer_ValidationFailed(t *testing.T) {
	repo := &mockRepository{}
	srv := newTestServer(repo)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/customers", "application/json",
		strings.NewReader(`{"name":"","email":"not-an-email"}`))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Got status %d, want 400", resp.StatusCode)
	}

	body := decodeErrorBody(t, resp)
	if body.Error.Code != "VALIDATION_FAILED" {
		t.Errorf("Got code %q, want VALIDATION_FAILED", body.Error.Code)
	}
	if _, ok := body.Error.Errors["name"]; !ok {
		t.Errorf("Expected a field error for name, got %v", body.Error.Errors)
	}
	if _, ok := body.Error.Errors["email"]; !ok {
		t.Errorf("Expected a field error for email, got %v", body.Error.Errors)
	}

	if len(repo.createCalls) != 0 {
		t.Error("Invalid payload must not reach the repository")
	}
}

func TestCreateCustomer_DuplicateEmail(t *testing.T) {
	repo := &mockRepository{
		createFunc: func(ctx context.Context, arg models.CreateCustomerParams) (models.Customer, error) {
			return models.Customer{}, ErrDuplicateEmail
		},
	}
	srv := newTestServer(repo)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/customers", "application/json",
		strings.NewReader(`{"name":"John Smith","email":"john@example.com"}`))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("Got status %d, want 409", resp.StatusCode)
	}
	if body := decodeErrorBody(t, resp); body.Error.Code != "DUPLICATE_EMAIL" {
		t.Errorf("Got code %q, want DUPLICATE_EMAIL", body.Error.Code)
	}
}

func TestGetCustomer_NotFound(t *testing.T) {
	repo := &mockRepository{}
	srv := newTestServer(repo)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/customers/" + uuid.NewString())
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Got status %d, want 404", resp.StatusCode)
	}
	if body := decodeErrorBody(t, resp); body.Error.Code != "CUSTOMER_NOT_FOUND" {
		t.Errorf("Got code %q, want CUSTOMER_NOT_FOUND", body.Error.Code)
	}
}

func TestGetCustomer_InvalidID(t *testing.T) {
	repo := &mockRepository{}
	srv := newTestServer(repo)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/customers/not-a-uuid")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Got status %d, want 400", resp.StatusCode)
	}
}

func TestDeleteCustomer_NoContent(t *testing.T) {
	repo := &mockRepository{}
	srv := newTestServer(repo)
	defer srv.Close()

	id := uuid.New()
	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/customers/"+id.String(), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Got status %d, want 204", resp.StatusCode)
	}
	if len(repo.deleteCalls) != 1 || repo.deleteCalls[0] != id {
		t.Errorf("Soft delete not forwarded to the repository: %v", repo.deleteCalls)
	}
}

func TestSearchCustomers_EmptyStore(t *testing.T) {
	repo := &mockRepository{}
	srv := newTestServer(repo)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/customers?page=1&pageSize=10")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Got status %d, want 200", resp.StatusCode)
	}

	var body SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(body.Items) != 0 || body.TotalCount != 0 || body.TotalPages != 0 {
		t.Errorf("Expected an empty page, got %+v", body)
	}
}

func TestSearchCustomers_InvalidSortField(t *testing.T) {
	repo := &mockRepository{}
	srv := newTestServer(repo)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/customers?sortBy=phone")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Got status %d, want 400", resp.StatusCode)
	}
	if body := decodeErrorBody(t, resp); body.Error.Code != "INVALID_SORT_FIELD" {
		t.Errorf("Got code %q, want INVALID_SORT_FIELD", body.Error.Code)
	}
}

func TestSearchCustomers_InvalidDate(t *testing.T) {
	repo := &mockRepository{}
	srv := newTestServer(repo)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/customers?dateFrom=yesterday")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Got status %d, want 400", resp.StatusCode)
	}
}

func TestBulkCreate_InvalidCount(t *testing.T) {
	repo := &mockRepository{}
	srv := newTestServer(repo)
	defer srv.Close()

	for _, payload := range []string{`{"count":0}`, `{"count":1001}`} {
		resp, err := http.Post(srv.URL+"/api/customers/bulk", "application/json", strings.NewReader(payload))
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Payload %s: got status %d, want 400", payload, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestBulkCreate_ReportsBothCounts(t *testing.T) {
	attempt := 0
	repo := &mockRepository{
		createFunc: func(ctx context.Context, arg models.CreateCustomerParams) (models.Customer, error) {
			attempt++
			if attempt%2 == 0 {
				return models.Customer{}, ErrDuplicateEmail
			}
			return customerFromCreateParams(arg), nil
		},
	}
	srv := newTestServer(repo)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/customers/bulk", "application/json", strings.NewReader(`{"count":6}`))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Got status %d, want 200", resp.StatusCode)
	}

	var result BulkCreateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.SuccessCount != 3 || result.FailureCount != 3 {
		t.Errorf("Got success=%d failure=%d, want 3/3", result.SuccessCount, result.FailureCount)
	}
}
