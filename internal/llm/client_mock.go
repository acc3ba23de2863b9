package llm

import (
	"context"

	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/schema"
	"github.com/stretchr/testify/mock"
)

// MockModelClient is a mock implementation of ModelClient for testing.
type MockModelClient struct {
	mock.Mock
}

var _ contract.ModelClient = &MockModelClient{} // Compile-time check

// Complete implements the ModelClient interface.
func (m *MockModelClient) Complete(ctx context.Context, messages []schema.Message, tools []schema.ToolSpec) (schema.Completion, error) {
	args := m.Called(ctx, messages, tools)
	completion, _ := args.Get(0).(schema.Completion)
	return completion, args.Error(1)
}
