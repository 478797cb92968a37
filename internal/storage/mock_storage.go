package storage

import (
	"io"

	"github.com/stretchr/testify/mock"
)

// MockStorage records media writes for service tests.
type MockStorage struct {
	mock.Mock
}

var _ Storage = (*MockStorage)(nil)

func (m *MockStorage) Save(clientPath string, content io.Reader) error {
	return m.Called(clientPath, content).Error(0)
}

func (m *MockStorage) Remove(clientPath string) error {
	return m.Called(clientPath).Error(0)
}
