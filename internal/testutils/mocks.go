// Package testutils holds testify mocks shared by package tests.
package testutils

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockSender stands in for the Kafka producer.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, topic, key string, message interface{}) error {
	args := m.Called(ctx, topic, key, message)
	return args.Error(0)
}

func (m *MockSender) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockSweeper stands in for the engine's deadline sweep.
type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}
