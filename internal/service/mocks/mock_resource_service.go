package mocks

import (
	"context"

	"resourcehub/internal/model"
	"resourcehub/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockResourceService struct {
	mock.Mock
}

func (m *MockResourceService) Create(ctx context.Context, in model.ResourceInput, up *service.Upload) (*model.Resource, error) {
	args := m.Called(ctx, in, up)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Resource), args.Error(1)
}

func (m *MockResourceService) Get(ctx context.Context, id string) (*model.Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Resource), args.Error(1)
}

func (m *MockResourceService) List(ctx context.Context, f model.ResourceFilters) (*service.ResourceListResult, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ResourceListResult), args.Error(1)
}

func (m *MockResourceService) Update(ctx context.Context, id string, upd model.ResourceUpdate, up *service.Upload) (*model.Resource, error) {
	args := m.Called(ctx, id, upd, up)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Resource), args.Error(1)
}

func (m *MockResourceService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockResourceService) IncrementDownload(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockResourceService) Stats(ctx context.Context) (*model.ResourceStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ResourceStats), args.Error(1)
}
