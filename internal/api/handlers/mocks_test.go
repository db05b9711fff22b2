package handlers

import (
	"context"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/service"
	"github.com/maheshrc27/postflow/internal/transfer"
	"github.com/stretchr/testify/mock"
)

type MockPostService struct {
	mock.Mock
}

func postOrNil(args mock.Arguments) (*models.Post, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostService) CreatePost(ctx context.Context, pc *transfer.PostCreation) (*models.Post, error) {
	return postOrNil(m.Called(ctx, pc))
}

func (m *MockPostService) List(ctx context.Context, status string) ([]*models.Post, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostService) PostInfo(ctx context.Context, id string) (*models.Post, error) {
	return postOrNil(m.Called(ctx, id))
}

func (m *MockPostService) Update(ctx context.Context, id string, pu *transfer.PostUpdate) (*models.Post, error) {
	return postOrNil(m.Called(ctx, id, pu))
}

func (m *MockPostService) Remove(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPostService) Schedule(ctx context.Context, id string) (*models.Post, error) {
	return postOrNil(m.Called(ctx, id))
}

type MockSchedulerService struct {
	mock.Mock
}

func (m *MockSchedulerService) Run(ctx context.Context) { m.Called(ctx) }

func (m *MockSchedulerService) RunOne(ctx context.Context, id string) (*models.Post, error) {
	return postOrNil(m.Called(ctx, id))
}

func (m *MockSchedulerService) RunDue(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSchedulerService) Retry(ctx context.Context, id string) (*models.Post, error) {
	return postOrNil(m.Called(ctx, id))
}

func (m *MockSchedulerService) Cancel(ctx context.Context, id string) (*models.Post, error) {
	return postOrNil(m.Called(ctx, id))
}

func (m *MockSchedulerService) ReclaimStale(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockMediaService struct {
	mock.Mock
}

func (m *MockMediaService) Upload(ctx context.Context, data []byte) (*transfer.MediaUpload, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.MediaUpload), args.Error(1)
}

func (m *MockMediaService) Open(ctx context.Context, key string) (*service.MediaObject, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.MediaObject), args.Error(1)
}
