package worker

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

type Notifier interface {
	Notify(content string, recipient string) (string, error)
}

// Simulates delivering notifications
type MockNotifier struct {
	successRate float64
}

// Create a new mock notifier with the given success rate
func NewMockNotifier(successRate float64) *MockNotifier {
	return &MockNotifier{
		successRate: successRate,
	}
}

// Simulates delivering a notification
// Returns a provider message ID on success, or an error on failure
func (n *MockNotifier) Notify(content string, recipient string) (string, error) {
	time.Sleep(time.Duration(rand.Intn(200)) * time.Millisecond)
	if rand.Float64() > n.successRate {
		return "", fmt.Errorf("mock provider error: failed to deliver notification to %s", recipient)
	}
	return fmt.Sprintf("mock-msg-%s", uuid.New().String()), nil
}
