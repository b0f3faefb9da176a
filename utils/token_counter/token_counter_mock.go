package token_counter

import (
	"github.com/stretchr/testify/mock"
)

// MockTokenCounter is a mock implementation of TokenCounterInterface for testing.
type MockTokenCounter struct {
	mock.Mock
}

var _ TokenCounterInterface = (*MockTokenCounter)(nil)

func NewMockTokenCounter() *MockTokenCounter {
	return &MockTokenCounter{}
}

func (m *MockTokenCounter) CountTextTokens(text string) int {
	args := m.Called(text)
	return args.Int(0)
}

func (m *MockTokenCounter) EstimateMessageTokens(role, content string) int {
	args := m.Called(role, content)
	return args.Int(0)
}

func (m *MockTokenCounter) CountRequestTokens(request any) (int, error) {
	args := m.Called(request)
	return args.Int(0), args.Error(1)
}
