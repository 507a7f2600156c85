package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gtrusler/lexpertchatai-sub000/internal/database/pgerr"
	"github.com/gtrusler/lexpertchatai-sub000/internal/model"
	"github.com/gtrusler/lexpertchatai-sub000/internal/repository"
)

// TemplateService manages reusable document templates and their source
// document links.
type TemplateService interface {
	Create(ctx context.Context, tpl *model.Template) (*model.Template, error)
	Get(ctx context.Context, id string) (*model.Template, error)
	GetByName(ctx context.Context, name string) (*model.Template, error)
	List(ctx context.Context) ([]model.Template, error)
	Update(ctx context.Context, tpl *model.Template) (*model.Template, error)
	Delete(ctx context.Context, id string) error

	// AttachDocument links a stored document to the template as source
	// material. Attaching an already-attached document is a no-op.
	AttachDocument(ctx context.Context, templateID, documentID string) error
	// DetachDocument removes the link; detaching an absent link is a no-op.
	DetachDocument(ctx context.Context, templateID, documentID string) error
	// Documents returns the IDs of the template's linked source documents.
	Documents(ctx context.Context, templateID string) ([]string, error)
}

type templateService struct {
	repo        repository.TemplateRepository
	callTimeout time.Duration
}

// NewTemplateService constructs a new TemplateService. A non-positive
// callTimeout selects the default bound.
func NewTemplateService(repo repository.TemplateRepository, callTimeout time.Duration) TemplateService {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &templateService{repo: repo, callTimeout: callTimeout}
}

func (s *templateService) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.callTimeout)
}

func (s *templateService) Create(ctx context.Context, tpl *model.Template) (*model.Template, error) {
	if tpl == nil || tpl.Name == "" {
		return nil, ErrNameRequired
	}
	createCtx, cancel := s.callCtx(ctx)
	defer cancel()
	created, err := s.repo.Create(createCtx, tpl)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return nil, &Error{Kind: KindValidationFailed, Op: "create template", Err: errors.New("template name already taken")}
		}
		return nil, &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "create template", Err: err}
	}
	return created, nil
}

func (s *templateService) Get(ctx context.Context, id string) (*model.Template, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	findCtx, cancel := s.callCtx(ctx)
	defer cancel()
	tpl, err := s.repo.FindByID(findCtx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "get template", Err: err}
	}
	return tpl, nil
}

func (s *templateService) GetByName(ctx context.Context, name string) (*model.Template, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	findCtx, cancel := s.callCtx(ctx)
	defer cancel()
	tpl, err := s.repo.FindByName(findCtx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "get template by name", Err: err}
	}
	return tpl, nil
}

func (s *templateService) List(ctx context.Context) ([]model.Template, error) {
	listCtx, cancel := s.callCtx(ctx)
	defer cancel()
	tpls, err := s.repo.List(listCtx)
	if err != nil {
		return nil, &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "list templates", Err: err}
	}
	return tpls, nil
}

func (s *templateService) Update(ctx context.Context, tpl *model.Template) (*model.Template, error) {
	if tpl == nil || tpl.ID == "" {
		return nil, ErrIDRequired
	}
	if tpl.Name == "" {
		return nil, ErrNameRequired
	}
	updCtx, cancel := s.callCtx(ctx)
	defer cancel()
	updated, err := s.repo.Update(updCtx, tpl)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if pgerr.IsUniqueViolation(err) {
			return nil, &Error{Kind: KindValidationFailed, Op: "update template", Err: errors.New("template name already taken")}
		}
		return nil, &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "update template", Err: err}
	}
	return updated, nil
}

func (s *templateService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	delCtx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := s.repo.Delete(delCtx, id); err != nil {
		return &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "delete template", Err: err}
	}
	return nil
}

func (s *templateService) AttachDocument(ctx context.Context, templateID, documentID string) error {
	if templateID == "" || documentID == "" {
		return ErrIDRequired
	}
	linkCtx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := s.repo.LinkDocument(linkCtx, templateID, documentID); err != nil {
		if pgerr.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "attach template document", Err: err}
	}
	return nil
}

func (s *templateService) DetachDocument(ctx context.Context, templateID, documentID string) error {
	if templateID == "" || documentID == "" {
		return ErrIDRequired
	}
	linkCtx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := s.repo.UnlinkDocument(linkCtx, templateID, documentID); err != nil {
		return &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "detach template document", Err: err}
	}
	return nil
}

func (s *templateService) Documents(ctx context.Context, templateID string) ([]string, error) {
	if templateID == "" {
		return nil, ErrIDRequired
	}
	listCtx, cancel := s.callCtx(ctx)
	defer cancel()
	ids, err := s.repo.DocumentIDs(listCtx, templateID)
	if err != nil {
		return nil, &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "list template documents", Err: err}
	}
	return ids, nil
}
