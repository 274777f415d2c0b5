package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveConsultation(ctx context.Context, c Consultation) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockStore) GetConsultation(ctx context.Context, id uuid.UUID) (Consultation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Consultation), args.Error(1)
}

func (m *MockStore) ListConsultations(ctx context.Context, limit int) ([]Consultation, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Consultation), args.Error(1)
}

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
