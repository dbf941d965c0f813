package customers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/sangkips/customer-records-service/internal/domains/customers/models"
)

// TestPagination_NoDuplicates, tests that pagination returns no duplicates across pages
func TestPagination_NoDuplicates(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := connectTestDB(t)
	defer db.Close()

	tx := setupTestTx(t, db)
	defer tx.Rollback()

	ctx := context.Background()
	repo := NewRepository(tx)

	// 25 customers gives 3 pages with pageSize=10
	ids := createTestCustomers(t, ctx, repo, 25)

	seenIDs := make(map[uuid.UUID]bool)
	for page := 0; page < 3; page++ {
		items, err := repo.SearchCustomers(ctx, models.SearchCustomersParams{
			OrderBy: "name",
			Limit:   10,
			Offset:  int64(page * 10),
		})
		if err != nil {
			t.Fatalf("Failed to fetch page %d: %v", page+1, err)
		}
		for _, customer := range items {
			if seenIDs[customer.ID] {
				t.Errorf("Duplicate customer ID %s found on page %d", customer.ID, page+1)
			}
			seenIDs[customer.ID] = true
		}
	}

	if len(seenIDs) != len(ids) {
		t.Errorf("Expected %d unique customers across pages, got %d", len(ids), len(seenIDs))
	}
}

// TestPagination_StableOrdering, ties on the sort key must not reorder between fetches
func TestPagination_StableOrdering(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := connectTestDB(t)
	defer db.Close()

	tx := setupTestTx(t, db)
	defer tx.Rollback()

	ctx := context.Background()
	repo := NewRepository(tx)

	// identical names force the id tiebreak
	for i := 0; i < 15; i++ {
		createTestCustomer(t, ctx, repo, "Same Name", fmt.Sprintf("same.name%d@example.com", i))
	}

	params := models.SearchCustomersParams{OrderBy: "name", Limit: 10, Offset: 0}

	first, err := repo.SearchCustomers(ctx, params)
	if err != nil {
		t.Fatalf("Failed first fetch: %v", err)
	}
	second, err := repo.SearchCustomers(ctx, params)
	if err != nil {
		t.Fatalf("Failed second fetch: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Fetches returned different counts: %d, %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("Order mismatch at index %d: first=%s, second=%s", i, first[i].ID, second[i].ID)
		}
	}
}

// TestSearch_TermMatchesNameOrEmail, case-insensitive substring over both columns
func TestSearch_TermMatchesNameOrEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := connectTestDB(t)
	defer db.Close()

	tx := setupTestTx(t, db)
	defer tx.Rollback()

	ctx := context.Background()
	repo := NewRepository(tx)

	john := createTestCustomer(t, ctx, repo, "John Smith", "jsmith@example.com")
	bob := createTestCustomer(t, ctx, repo, "Bob Brown", "bob@johnson.com")
	createTestCustomer(t, ctx, repo, "Jane Doe", "jane.doe@example.com")

	items, err := repo.SearchCustomers(ctx, models.SearchCustomersParams{
		Search:  sql.NullString{String: "john", Valid: true},
		OrderBy: "name",
		Limit:   10,
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 matches for \"john\", got %d", len(items))
	}
	// name asc: Bob Brown before John Smith
	if items[0].ID != bob.ID || items[1].ID != john.ID {
		t.Errorf("Unexpected matches: %s, %s", items[0].Name, items[1].Name)
	}

	count, err := repo.CountCustomers(ctx, models.CountCustomersParams{
		Search: sql.NullString{String: "john", Valid: true},
	})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected count 2, got %d", count)
	}
}

// TestSearch_DateRange, inclusive created_at bounds
func TestSearch_DateRange(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := connectTestDB(t)
	defer db.Close()

	tx := setupTestTx(t, db)
	defer tx.Rollback()

	ctx := context.Background()
	repo := NewRepository(tx)

	old := createTestCustomer(t, ctx, repo, "Old Customer", "old@example.com")
	// backdate by 10 days
	if _, err := tx.Exec("UPDATE customers SET created_at = now() - interval '10 days' WHERE id = $1", old.ID); err != nil {
		t.Fatalf("Failed to backdate customer: %v", err)
	}
	recent := createTestCustomer(t, ctx, repo, "Recent Customer", "recent@example.com")

	cutoff := time.Now().UTC().Add(-5 * 24 * time.Hour)

	fromItems, err := repo.SearchCustomers(ctx, models.SearchCustomersParams{
		DateFrom: sql.NullTime{Time: cutoff, Valid: true},
		OrderBy:  "name",
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("Search with dateFrom failed: %v", err)
	}
	if len(fromItems) != 1 || fromItems[0].ID != recent.ID {
		t.Errorf("dateFrom filter should exclude the backdated customer, got %d items", len(fromItems))
	}

	toItems, err := repo.SearchCustomers(ctx, models.SearchCustomersParams{
		DateTo:  sql.NullTime{Time: cutoff, Valid: true},
		OrderBy: "name",
		Limit:   10,
	})
	if err != nil {
		t.Fatalf("Search with dateTo failed: %v", err)
	}
	if len(toItems) != 1 || toItems[0].ID != old.ID {
		t.Errorf("dateTo filter should include only the backdated customer, got %d items", len(toItems))
	}
}

// TestSoftDelete_ExcludedFromReadsButRetained, deleted rows vanish from reads but stay in storage
func TestSoftDelete_ExcludedFromReadsButRetained(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := connectTestDB(t)
	defer db.Close()

	tx := setupTestTx(t, db)
	defer tx.Rollback()

	ctx := context.Background()
	repo := NewRepository(tx)

	customer := createTestCustomer(t, ctx, repo, "John Smith", "john.smith@example.com")

	if err := repo.SoftDeleteCustomer(ctx, customer.ID); err != nil {
		t.Fatalf("Soft delete failed: %v", err)
	}

	if _, err := repo.GetCustomer(ctx, customer.ID); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound after soft delete, got %v", err)
	}
	if _, err := repo.GetCustomerByEmail(ctx, customer.Email); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound by email after soft delete, got %v", err)
	}

	count, err := repo.CountCustomers(ctx, models.CountCustomersParams{})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Soft-deleted row still counted, got %d", count)
	}

	exists, err := repo.CustomerExistsIgnoringDeleted(ctx, customer.ID)
	if err != nil {
		t.Fatalf("Existence check failed: %v", err)
	}
	if !exists {
		t.Error("Row must remain physically present after soft delete")
	}

	// deleting again is a not-found
	if err := repo.SoftDeleteCustomer(ctx, customer.ID); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

// TestDuplicateEmail_LiveRowsOnly, the unique index ignores soft-deleted rows
func TestDuplicateEmail_LiveRowsOnly(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := connectTestDB(t)
	defer db.Close()

	tx := setupTestTx(t, db)
	defer tx.Rollback()

	ctx := context.Background()
	repo := NewRepository(tx)

	first := createTestCustomer(t, ctx, repo, "John Smith", "shared@example.com")

	// the unique violation aborts the surrounding transaction, so the
	// expected failure runs inside a savepoint
	if _, err := tx.Exec("SAVEPOINT duplicate_insert"); err != nil {
		t.Fatalf("Failed to create savepoint: %v", err)
	}
	_, err := repo.CreateCustomer(ctx, models.CreateCustomerParams{
		ID:    uuid.New(),
		Name:  "Other Person",
		Email: "Shared@Example.com",
	})
	if err != ErrDuplicateEmail {
		t.Fatalf("Expected ErrDuplicateEmail for a live duplicate, got %v", err)
	}
	if _, err := tx.Exec("ROLLBACK TO SAVEPOINT duplicate_insert"); err != nil {
		t.Fatalf("Failed to roll back to savepoint: %v", err)
	}

	if err := repo.SoftDeleteCustomer(ctx, first.ID); err != nil {
		t.Fatalf("Soft delete failed: %v", err)
	}

	// the email is free again once its holder is deleted
	if _, err := repo.CreateCustomer(ctx, models.CreateCustomerParams{
		ID:    uuid.New(),
		Name:  "Other Person",
		Email: "shared@example.com",
	}); err != nil {
		t.Fatalf("Expected reuse of a soft-deleted email to succeed, got %v", err)
	}
}

func connectTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Get database URL from environment or use default
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DB_URL")
		if dbURL == "" {
			t.Skip("TEST_DATABASE_URL or DB_URL not set, skipping integration test")
		}
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	return db
}

func setupTestTx(t *testing.T, db *sql.DB) *sql.Tx {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}

	// Clean up test data within the transaction
	if _, err := tx.Exec("DELETE FROM customer_events"); err != nil {
		t.Fatalf("Failed to clean up customer_events: %v", err)
	}
	if _, err := tx.Exec("DELETE FROM customers"); err != nil {
		t.Fatalf("Failed to clean up customers: %v", err)
	}

	return tx
}

func createTestCustomer(t *testing.T, ctx context.Context, repo Repository, name, email string) models.Customer {
	t.Helper()

	customer, err := repo.CreateCustomer(ctx, models.CreateCustomerParams{
		ID:    uuid.New(),
		Name:  name,
		Email: email,
		Phone: sql.NullString{String: "+1-555-200-1000", Valid: true},
	})
	if err != nil {
		t.Fatalf("Failed to create test customer: %v", err)
	}
	return customer
}

func createTestCustomers(t *testing.T, ctx context.Context, repo Repository, count int) []uuid.UUID {
	t.Helper()

	var ids []uuid.UUID
	for i := 0; i < count; i++ {
		customer := createTestCustomer(t, ctx, repo,
			fmt.Sprintf("Test Customer %03d", i),
			fmt.Sprintf("test.customer%d@example.com", i))
		ids = append(ids, customer.ID)
	}
	return ids
}
