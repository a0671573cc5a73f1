package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/larrynino/spatial-public-health/internal/pipeline"
)

// MockResultSource is a mock for the ResultSource interface
type MockResultSource struct {
	mock.Mock
}

func (m *MockResultSource) Get(ctx context.Context) (*pipeline.Result, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*pipeline.Result)
	return res, args.Error(1)
}

func (m *MockResultSource) Reload(ctx context.Context) (*pipeline.Result, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*pipeline.Result)
	return res, args.Error(1)
}

func (m *MockResultSource) Inputs() []string {
	args := m.Called()
	inputs, _ := args.Get(0).([]string)
	return inputs
}
