package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/gtrusler/lexpertchatai-sub000/internal/model"
	repoMocks "github.com/gtrusler/lexpertchatai-sub000/internal/repository/mocks"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTemplateService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		mRepo := new(repoMocks.MockTemplateRepository)
		in := &model.Template{Name: "Motion to Dismiss", Content: "..."}
		mRepo.On("Create", mock.Anything, in).Return(&model.Template{ID: "tpl-1", Name: "Motion to Dismiss"}, nil)
		svc := NewTemplateService(mRepo, 0)

		tpl, err := svc.Create(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "tpl-1", tpl.ID)
		mRepo.AssertExpectations(t)
	})

	t.Run("empty name", func(t *testing.T) {
		svc := NewTemplateService(new(repoMocks.MockTemplateRepository), 0)
		_, err := svc.Create(ctx, &model.Template{})
		assert.ErrorIs(t, err, ErrNameRequired)
	})

	t.Run("duplicate name is a validation failure", func(t *testing.T) {
		mRepo := new(repoMocks.MockTemplateRepository)
		mRepo.On("Create", mock.Anything, mock.Anything).
			Return(nil, &pgconn.PgError{Code: "23505", ConstraintName: "templates_name_key"})
		svc := NewTemplateService(mRepo, 0)

		_, err := svc.Create(ctx, &model.Template{Name: "Motion to Dismiss"})
		assert.Error(t, err)
		assert.Equal(t, KindValidationFailed, Kind(err))
	})
}

func TestTemplateService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mRepo *repoMocks.MockTemplateRepository)
		wantErr    error
	}{
		{
			name: "happy path",
			id:   "tpl-1",
			setupMocks: func(mRepo *repoMocks.MockTemplateRepository) {
				mRepo.On("FindByID", mock.Anything, "tpl-1").Return(&model.Template{ID: "tpl-1"}, nil)
			},
		},
		{
			name:       "empty id",
			id:         "",
			setupMocks: func(mRepo *repoMocks.MockTemplateRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name: "not found",
			id:   "missing",
			setupMocks: func(mRepo *repoMocks.MockTemplateRepository) {
				mRepo.On("FindByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockTemplateRepository)
			svc := NewTemplateService(mRepo, 0)

			tt.setupMocks(mRepo)

			tpl, err := svc.Get(ctx, tt.id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.id, tpl.ID)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestTemplateService_GetByName(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		mRepo := new(repoMocks.MockTemplateRepository)
		mRepo.On("FindByName", mock.Anything, "Motion to Dismiss").
			Return(&model.Template{ID: "tpl-1", Name: "Motion to Dismiss"}, nil)
		svc := NewTemplateService(mRepo, 0)

		tpl, err := svc.GetByName(ctx, "Motion to Dismiss")
		require.NoError(t, err)
		assert.Equal(t, "tpl-1", tpl.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockTemplateRepository)
		mRepo.On("FindByName", mock.Anything, "nope").Return(nil, sql.ErrNoRows)
		svc := NewTemplateService(mRepo, 0)

		_, err := svc.GetByName(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTemplateService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		mRepo := new(repoMocks.MockTemplateRepository)
		in := &model.Template{ID: "tpl-1", Name: "Motion to Dismiss", Objective: "dismissal"}
		mRepo.On("Update", mock.Anything, in).Return(in, nil)
		svc := NewTemplateService(mRepo, 0)

		tpl, err := svc.Update(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "dismissal", tpl.Objective)
	})

	t.Run("missing id", func(t *testing.T) {
		svc := NewTemplateService(new(repoMocks.MockTemplateRepository), 0)
		_, err := svc.Update(ctx, &model.Template{Name: "x"})
		assert.ErrorIs(t, err, ErrIDRequired)
	})

	t.Run("not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockTemplateRepository)
		mRepo.On("Update", mock.Anything, mock.Anything).Return(nil, sql.ErrNoRows)
		svc := NewTemplateService(mRepo, 0)

		_, err := svc.Update(ctx, &model.Template{ID: "tpl-1", Name: "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTemplateService_DocumentLinks(t *testing.T) {
	ctx := context.Background()

	t.Run("attach and list", func(t *testing.T) {
		mRepo := new(repoMocks.MockTemplateRepository)
		mRepo.On("LinkDocument", mock.Anything, "tpl-1", "doc-1").Return(nil)
		mRepo.On("DocumentIDs", mock.Anything, "tpl-1").Return([]string{"doc-1"}, nil)
		svc := NewTemplateService(mRepo, 0)

		require.NoError(t, svc.AttachDocument(ctx, "tpl-1", "doc-1"))
		ids, err := svc.Documents(ctx, "tpl-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"doc-1"}, ids)
		mRepo.AssertExpectations(t)
	})

	t.Run("attach to a missing template or document", func(t *testing.T) {
		mRepo := new(repoMocks.MockTemplateRepository)
		mRepo.On("LinkDocument", mock.Anything, "tpl-x", "doc-x").
			Return(&pgconn.PgError{Code: "23503", ConstraintName: "template_documents_template_id_fkey"})
		svc := NewTemplateService(mRepo, 0)

		err := svc.AttachDocument(ctx, "tpl-x", "doc-x")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("detach", func(t *testing.T) {
		mRepo := new(repoMocks.MockTemplateRepository)
		mRepo.On("UnlinkDocument", mock.Anything, "tpl-1", "doc-1").Return(nil)
		svc := NewTemplateService(mRepo, 0)

		assert.NoError(t, svc.DetachDocument(ctx, "tpl-1", "doc-1"))
	})

	t.Run("empty ids", func(t *testing.T) {
		svc := NewTemplateService(new(repoMocks.MockTemplateRepository), 0)
		assert.ErrorIs(t, svc.AttachDocument(ctx, "", "doc-1"), ErrIDRequired)
		assert.ErrorIs(t, svc.DetachDocument(ctx, "tpl-1", ""), ErrIDRequired)
	})
}

func TestTemplateService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		mRepo := new(repoMocks.MockTemplateRepository)
		mRepo.On("Delete", mock.Anything, "tpl-1").Return(nil)
		svc := NewTemplateService(mRepo, 0)

		assert.NoError(t, svc.Delete(ctx, "tpl-1"))
	})

	t.Run("repository error", func(t *testing.T) {
		mRepo := new(repoMocks.MockTemplateRepository)
		mRepo.On("Delete", mock.Anything, "tpl-1").Return(errors.New("db fail"))
		svc := NewTemplateService(mRepo, 0)

		err := svc.Delete(ctx, "tpl-1")
		assert.Error(t, err)
		assert.Equal(t, KindMetadataFailed, Kind(err))
	})
}
