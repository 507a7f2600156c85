package mocks

import (
	"context"

	"github.com/gtrusler/lexpertchatai-sub000/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockTagService struct {
	mock.Mock
}

func (m *MockTagService) Ensure(ctx context.Context, name, description string, parentID *string) (*model.Tag, error) {
	args := m.Called(ctx, name, description, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tag), args.Error(1)
}

func (m *MockTagService) List(ctx context.Context) ([]model.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tag), args.Error(1)
}

func (m *MockTagService) TagsFor(ctx context.Context, kind model.TagEntityKind, entityID string) ([]string, error) {
	args := m.Called(ctx, kind, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTagService) SetTagsFor(ctx context.Context, kind model.TagEntityKind, entityID string, desired []string) error {
	args := m.Called(ctx, kind, entityID, desired)
	return args.Error(0)
}

func (m *MockTagService) EntitiesWithTag(ctx context.Context, kind model.TagEntityKind, tagID string) ([]string, error) {
	args := m.Called(ctx, kind, tagID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
