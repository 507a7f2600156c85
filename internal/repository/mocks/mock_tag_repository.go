package mocks

import (
	"context"

	"github.com/gtrusler/lexpertchatai-sub000/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockTagRepository struct {
	mock.Mock
}

func (m *MockTagRepository) Create(ctx context.Context, tag *model.Tag) (*model.Tag, error) {
	args := m.Called(ctx, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tag), args.Error(1)
}

func (m *MockTagRepository) FindByID(ctx context.Context, id string) (*model.Tag, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tag), args.Error(1)
}

func (m *MockTagRepository) FindByName(ctx context.Context, name string) (*model.Tag, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tag), args.Error(1)
}

func (m *MockTagRepository) List(ctx context.Context) ([]model.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tag), args.Error(1)
}

func (m *MockTagRepository) UpdateParent(ctx context.Context, id string, parentID *string) (*model.Tag, error) {
	args := m.Called(ctx, id, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tag), args.Error(1)
}

func (m *MockTagRepository) LinkedTagIDs(ctx context.Context, kind model.TagEntityKind, entityID string) ([]string, error) {
	args := m.Called(ctx, kind, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTagRepository) InsertLinks(ctx context.Context, kind model.TagEntityKind, entityID string, tagIDs []string) error {
	args := m.Called(ctx, kind, entityID, tagIDs)
	return args.Error(0)
}

func (m *MockTagRepository) DeleteLinks(ctx context.Context, kind model.TagEntityKind, entityID string, tagIDs []string) error {
	args := m.Called(ctx, kind, entityID, tagIDs)
	return args.Error(0)
}

func (m *MockTagRepository) EntitiesWithTag(ctx context.Context, kind model.TagEntityKind, tagID string) ([]string, error) {
	args := m.Called(ctx, kind, tagID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
