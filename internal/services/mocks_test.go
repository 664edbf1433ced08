package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"genbea/internal/dataset"
	"genbea/internal/files"
)

type MockCatalogSource struct {
	mock.Mock
}

func (m *MockCatalogSource) Catalog() (*files.Catalog, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*files.Catalog), args.Error(1)
}

type MockWorkbookLoader struct {
	mock.Mock
}

func (m *MockWorkbookLoader) Load(ctx context.Context, path string) (*dataset.Workbook, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dataset.Workbook), args.Error(1)
}

func (m *MockWorkbookLoader) LoadAll(ctx context.Context, paths []string) ([]*dataset.Workbook, error) {
	args := m.Called(ctx, paths)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dataset.Workbook), args.Error(1)
}

func (m *MockWorkbookLoader) Merge(workbooks ...*dataset.Workbook) *dataset.Workbook {
	args := m.Called(workbooks)
	return args.Get(0).(*dataset.Workbook)
}

func (m *MockWorkbookLoader) Schema() dataset.Schema {
	args := m.Called()
	return args.Get(0).(dataset.Schema)
}

type MockCacheStats struct {
	mock.Mock
}

func (m *MockCacheStats) Stats() dataset.CacheStats {
	args := m.Called()
	return args.Get(0).(dataset.CacheStats)
}
