package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/dumensel/payment-service/internal/application"
	"github.com/dumensel/payment-service/internal/domain"
)

// MockPaymentRepository
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	CreateFn                  func(ctx context.Context, payment *domain.Payment) error
	UpdateFn                  func(ctx context.Context, payment *domain.Payment) error
	UpdateIfPendingFn         func(ctx context.Context, payment *domain.Payment) error
	FindByIDFn                func(ctx context.Context, id string) (*domain.Payment, error)
	FindByConversationIDFn    func(ctx context.Context, conversationID string) (*domain.Payment, error)
	FindByExternalPaymentIDFn func(ctx context.Context, externalPaymentID string) (*domain.Payment, error)
	FindByBuyerIDFn           func(ctx context.Context, buyerID string, limit, offset int) ([]*domain.Payment, error)
	FindPendingOlderThanFn    func(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Payment, error)
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, payment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.payments {
		if existing.ConversationID == payment.ConversationID {
			return application.ErrDuplicateConversationID
		}
	}
	m.payments[payment.ID] = payment
	return nil
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, payment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[payment.ID]; !ok {
		return application.ErrPaymentNotFound
	}
	m.payments[payment.ID] = payment
	return nil
}

func (m *MockPaymentRepository) UpdateIfPending(ctx context.Context, payment *domain.Payment) error {
	if m.UpdateIfPendingFn != nil {
		return m.UpdateIfPendingFn(ctx, payment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.payments[payment.ID]
	if !ok || existing.Status != domain.StatusPending {
		return application.ErrPaymentNotPending
	}
	m.payments[payment.ID] = payment
	return nil
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.payments[id]; ok {
		return p, nil
	}
	return nil, application.ErrPaymentNotFound
}

func (m *MockPaymentRepository) FindByConversationID(ctx context.Context, conversationID string) (*domain.Payment, error) {
	if m.FindByConversationIDFn != nil {
		return m.FindByConversationIDFn(ctx, conversationID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.ConversationID == conversationID {
			return p, nil
		}
	}
	return nil, application.ErrPaymentNotFound
}

func (m *MockPaymentRepository) FindByExternalPaymentID(ctx context.Context, externalPaymentID string) (*domain.Payment, error) {
	if m.FindByExternalPaymentIDFn != nil {
		return m.FindByExternalPaymentIDFn(ctx, externalPaymentID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.ExternalPaymentID == externalPaymentID {
			return p, nil
		}
	}
	return nil, application.ErrPaymentNotFound
}

func (m *MockPaymentRepository) FindByBuyerID(ctx context.Context, buyerID string, limit, offset int) ([]*domain.Payment, error) {
	if m.FindByBuyerIDFn != nil {
		return m.FindByBuyerIDFn(ctx, buyerID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var results []*domain.Payment
	for _, p := range m.payments {
		if p.BuyerID == buyerID {
			results = append(results, p)
		}
	}
	return results, nil
}

func (m *MockPaymentRepository) FindPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Payment, error) {
	if m.FindPendingOlderThanFn != nil {
		return m.FindPendingOlderThanFn(ctx, cutoff, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var results []*domain.Payment
	for _, p := range m.payments {
		if p.Status == domain.StatusPending && p.CreatedAt.Before(cutoff) {
			results = append(results, p)
		}
	}
	return results, nil
}

// MockPointsRepository
type MockPointsRepository struct {
	mu     sync.RWMutex
	points map[string]*domain.UserPoints

	FindByUserIDFn   func(ctx context.Context, userID string) (*domain.UserPoints, error)
	SaveFn           func(ctx context.Context, points *domain.UserPoints) (*domain.UserPoints, error)
	DeleteFn         func(ctx context.Context, userID string) error
	ExistsByUserIDFn func(ctx context.Context, userID string) (bool, error)
}

func NewMockPointsRepository() *MockPointsRepository {
	return &MockPointsRepository{
		points: make(map[string]*domain.UserPoints),
	}
}

func (m *MockPointsRepository) FindByUserID(ctx context.Context, userID string) (*domain.UserPoints, error) {
	if m.FindByUserIDFn != nil {
		return m.FindByUserIDFn(ctx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.points[userID]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, application.ErrPointsNotFound
}

func (m *MockPointsRepository) Save(ctx context.Context, points *domain.UserPoints) (*domain.UserPoints, error) {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, points)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.points[points.UserID]
	if points.Version == 0 {
		if ok {
			return nil, application.ErrVersionConflict
		}
	} else if !ok || existing.Version != points.Version {
		return nil, application.ErrVersionConflict
	}
	saved := *points
	saved.Version = points.Version + 1
	m.points[points.UserID] = &saved
	copied := saved
	return &copied, nil
}

func (m *MockPointsRepository) Delete(ctx context.Context, userID string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.points[userID]; !ok {
		return application.ErrPointsNotFound
	}
	delete(m.points, userID)
	return nil
}

func (m *MockPointsRepository) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	if m.ExistsByUserIDFn != nil {
		return m.ExistsByUserIDFn(ctx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.points[userID]
	return ok, nil
}

// MockGateway
type MockGateway struct {
	provider domain.Provider

	ProcessPaymentFn     func(ctx context.Context, payment *domain.Payment) (string, error)
	CheckPaymentStatusFn func(ctx context.Context, externalPaymentID string) (string, error)

	mu           sync.Mutex
	processCalls int
}

func NewMockGateway(provider domain.Provider) *MockGateway {
	return &MockGateway{provider: provider}
}

func (m *MockGateway) Provider() domain.Provider { return m.provider }

func (m *MockGateway) ProcessPayment(ctx context.Context, payment *domain.Payment) (string, error) {
	m.mu.Lock()
	m.processCalls++
	m.mu.Unlock()
	if m.ProcessPaymentFn != nil {
		return m.ProcessPaymentFn(ctx, payment)
	}
	return "ext-1", nil
}

func (m *MockGateway) CheckPaymentStatus(ctx context.Context, externalPaymentID string) (string, error) {
	if m.CheckPaymentStatusFn != nil {
		return m.CheckPaymentStatusFn(ctx, externalPaymentID)
	}
	return "SUCCESS", nil
}

func (m *MockGateway) ProcessCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processCalls
}
