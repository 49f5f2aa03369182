package payment

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// StubProvider is an in-memory provider for development when no Stripe
// key is configured. Created intents start in "processing"; tests and dev
// tools flip them with SetStatus.
type StubProvider struct {
	mu      sync.Mutex
	intents map[string]*Intent
	seq     int
}

func NewStubProvider() *StubProvider {
	return &StubProvider{intents: make(map[string]*Intent)}
}

func (s *StubProvider) CreateIntent(_ context.Context, params CreateIntentParams) (*Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	intent := &Intent{
		ID:           fmt.Sprintf("pi_stub_%d_%d", time.Now().UnixNano(), s.seq),
		ClientSecret: fmt.Sprintf("secret_stub_%d", s.seq),
		Status:       StatusProcessing,
		Amount:       params.AmountCents,
		Currency:     params.Currency,
	}
	s.intents[intent.ID] = intent
	return copyIntent(intent), nil
}

func (s *StubProvider) RetrieveIntent(_ context.Context, id string) (*Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[id]
	if !ok {
		return nil, fmt.Errorf("intent %s: %w", id, ErrProviderUnavailable)
	}
	return copyIntent(intent), nil
}

// SetStatus flips a stub intent's status (and optional receipt URL).
func (s *StubProvider) SetStatus(id, status, receiptURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if intent, ok := s.intents[id]; ok {
		intent.Status = status
		intent.ReceiptURL = receiptURL
	}
}

func copyIntent(i *Intent) *Intent {
	c := *i
	return &c
}
