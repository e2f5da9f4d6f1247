package backend

import (
	"context"

	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/schema"
	"github.com/stretchr/testify/mock"
)

// MockAnalysisClient is a mock implementation of AnalysisClient for testing.
type MockAnalysisClient struct {
	mock.Mock
}

var _ contract.AnalysisClient = &MockAnalysisClient{} // Compile-time check

// Ping implements the AnalysisClient interface.
func (m *MockAnalysisClient) Ping(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

// UploadConfig implements the AnalysisClient interface.
func (m *MockAnalysisClient) UploadConfig(ctx context.Context, files []contract.ConfigUpload) error {
	args := m.Called(ctx, files)
	return args.Error(0)
}

// AnalyzeRequest implements the AnalysisClient interface.
func (m *MockAnalysisClient) AnalyzeRequest(ctx context.Context, requestJSON []byte, system string) ([]byte, error) {
	args := m.Called(ctx, requestJSON, system)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

// DeepDive implements the AnalysisClient interface.
func (m *MockAnalysisClient) DeepDive(ctx context.Context, query schema.DeepDiveQuery) ([]byte, error) {
	args := m.Called(ctx, query)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}
