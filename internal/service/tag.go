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

// maxTagDepth bounds ancestor walks; a chain longer than this is treated
// as a cycle rather than walked forever.
const maxTagDepth = 64

// TagService manages the hierarchical tag taxonomy and the tag links of
// documents and templates.
//
// Every operation degrades gracefully when the tag relations do not exist
// yet: a "relation does not exist" failure from the metadata store yields
// an empty result or a no-op, never a fatal error, so callers that don't
// depend on tags keep working.
type TagService interface {
	// Ensure returns the tag with the given unique name, creating it when
	// absent. Repeated calls with the same name return the same tag; a
	// concurrent creation race resolves by re-reading. A parentID that
	// would make the tag its own ancestor is rejected.
	Ensure(ctx context.Context, name, description string, parentID *string) (*model.Tag, error)

	// List returns the whole taxonomy.
	List(ctx context.Context) ([]model.Tag, error)

	// TagsFor returns the tag IDs currently linked to the entity.
	TagsFor(ctx context.Context, kind model.TagEntityKind, entityID string) ([]string, error)

	// SetTagsFor reconciles the entity's links to exactly the desired set:
	// it inserts desired−current and deletes current−desired, in that
	// order. Equal sets perform zero writes.
	SetTagsFor(ctx context.Context, kind model.TagEntityKind, entityID string, desired []string) error

	// EntitiesWithTag returns the entity IDs linked to the tag.
	EntitiesWithTag(ctx context.Context, kind model.TagEntityKind, tagID string) ([]string, error)
}

type tagService struct {
	repo        repository.TagRepository
	callTimeout time.Duration
}

// NewTagService constructs a new TagService. A non-positive callTimeout
// selects the default bound.
func NewTagService(repo repository.TagRepository, callTimeout time.Duration) TagService {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &tagService{repo: repo, callTimeout: callTimeout}
}

func (s *tagService) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.callTimeout)
}

// degraded reports whether err means the tag relations are absent, logging
// the downgrade once per occurrence.
func degraded(err error) bool {
	if !pgerr.IsUndefinedTable(err) {
		return false
	}
	logJSON(map[string]any{
		"level":     "warn",
		"component": "engine",
		"event":     "tag_relations_missing",
		"msg":       "tag tables not provisioned, tag operations degraded to no-ops",
	})
	return true
}

func (s *tagService) Ensure(ctx context.Context, name, description string, parentID *string) (*model.Tag, error) {
	if name == "" {
		return nil, ErrNameRequired
	}

	findCtx, cancel := s.callCtx(ctx)
	existing, err := s.repo.FindByName(findCtx, name)
	cancel()
	switch {
	case err == nil:
		if parentID == nil || (existing.ParentTagID != nil && *existing.ParentTagID == *parentID) {
			return existing, nil
		}
		if err := s.checkAcyclic(ctx, existing.ID, *parentID); err != nil {
			return nil, err
		}
		updCtx, cancel := s.callCtx(ctx)
		defer cancel()
		updated, err := s.repo.UpdateParent(updCtx, existing.ID, parentID)
		if err != nil {
			return nil, &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "ensure tag: reparent", Err: err}
		}
		return updated, nil
	case errors.Is(err, sql.ErrNoRows):
		// Fall through to create.
	case degraded(err):
		return nil, nil
	default:
		return nil, &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "ensure tag: lookup", Err: err}
	}

	if parentID != nil {
		if err := s.checkParentExists(ctx, *parentID); err != nil {
			return nil, err
		}
	}

	createCtx, cancel := s.callCtx(ctx)
	created, err := s.repo.Create(createCtx, &model.Tag{Name: name, Description: description, ParentTagID: parentID})
	cancel()
	if err == nil {
		return created, nil
	}
	if pgerr.IsUniqueViolation(err) {
		// Lost the creation race to a concurrent caller; the name is
		// unique, so re-reading yields the winner's row.
		reCtx, cancel := s.callCtx(ctx)
		defer cancel()
		winner, findErr := s.repo.FindByName(reCtx, name)
		if findErr != nil {
			return nil, &Error{Kind: timeoutOr(findErr, KindMetadataFailed), Op: "ensure tag: reread after race", Err: findErr}
		}
		return winner, nil
	}
	if degraded(err) {
		return nil, nil
	}
	return nil, &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "ensure tag: create", Err: err}
}

// checkParentExists validates that a prospective parent tag is real.
func (s *tagService) checkParentExists(ctx context.Context, parentID string) error {
	findCtx, cancel := s.callCtx(ctx)
	defer cancel()
	if _, err := s.repo.FindByID(findCtx, parentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &Error{Kind: KindValidationFailed, Op: "ensure tag", Err: errors.New("parent tag does not exist")}
		}
		return &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "ensure tag: parent lookup", Err: err}
	}
	return nil
}

// checkAcyclic walks the ancestor chain from newParentID and rejects the
// reparenting when tagID occurs in it (or the chain exceeds maxTagDepth).
func (s *tagService) checkAcyclic(ctx context.Context, tagID, newParentID string) error {
	current := newParentID
	for depth := 0; depth < maxTagDepth; depth++ {
		if current == tagID {
			return ErrCyclicTagParent
		}
		findCtx, cancel := s.callCtx(ctx)
		parent, err := s.repo.FindByID(findCtx, current)
		cancel()
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &Error{Kind: KindValidationFailed, Op: "ensure tag", Err: errors.New("parent tag does not exist")}
			}
			return &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "ensure tag: ancestor walk", Err: err}
		}
		if parent.ParentTagID == nil {
			return nil
		}
		current = *parent.ParentTagID
	}
	return ErrCyclicTagParent
}

func (s *tagService) List(ctx context.Context) ([]model.Tag, error) {
	listCtx, cancel := s.callCtx(ctx)
	defer cancel()
	tags, err := s.repo.List(listCtx)
	if err != nil {
		if degraded(err) {
			return []model.Tag{}, nil
		}
		return nil, &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "list tags", Err: err}
	}
	return tags, nil
}

func (s *tagService) TagsFor(ctx context.Context, kind model.TagEntityKind, entityID string) ([]string, error) {
	if entityID == "" {
		return nil, ErrIDRequired
	}
	linkCtx, cancel := s.callCtx(ctx)
	defer cancel()
	ids, err := s.repo.LinkedTagIDs(linkCtx, kind, entityID)
	if err != nil {
		if degraded(err) {
			return []string{}, nil
		}
		return nil, &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "get entity tags", Err: err}
	}
	return ids, nil
}

func (s *tagService) SetTagsFor(ctx context.Context, kind model.TagEntityKind, entityID string, desired []string) error {
	if entityID == "" {
		return ErrIDRequired
	}
	curCtx, cancel := s.callCtx(ctx)
	current, err := s.repo.LinkedTagIDs(curCtx, kind, entityID)
	cancel()
	if err != nil {
		if degraded(err) {
			return nil
		}
		return &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "set entity tags: read current", Err: err}
	}

	toAdd, toRemove := diffTagSets(current, desired)
	if len(toAdd) == 0 && len(toRemove) == 0 {
		return nil
	}

	if len(toAdd) > 0 {
		addCtx, cancel := s.callCtx(ctx)
		err := s.repo.InsertLinks(addCtx, kind, entityID, toAdd)
		cancel()
		if err != nil {
			return &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "set entity tags: insert links", Err: err}
		}
	}
	if len(toRemove) > 0 {
		delCtx, cancel := s.callCtx(ctx)
		err := s.repo.DeleteLinks(delCtx, kind, entityID, toRemove)
		cancel()
		if err != nil {
			return &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "set entity tags: delete links", Err: err}
		}
	}
	return nil
}

func (s *tagService) EntitiesWithTag(ctx context.Context, kind model.TagEntityKind, tagID string) ([]string, error) {
	if tagID == "" {
		return nil, ErrIDRequired
	}
	listCtx, cancel := s.callCtx(ctx)
	defer cancel()
	ids, err := s.repo.EntitiesWithTag(listCtx, kind, tagID)
	if err != nil {
		if degraded(err) {
			return []string{}, nil
		}
		return nil, &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "list entities with tag", Err: err}
	}
	return ids, nil
}

// diffTagSets computes the minimal link changes: toAdd = desired−current,
// toRemove = current−desired, preserving input order and dropping
// duplicates.
func diffTagSets(current, desired []string) (toAdd, toRemove []string) {
	curSet := make(map[string]struct{}, len(current))
	for _, id := range current {
		curSet[id] = struct{}{}
	}
	desSet := make(map[string]struct{}, len(desired))
	for _, id := range desired {
		if _, dup := desSet[id]; dup {
			continue
		}
		desSet[id] = struct{}{}
		if _, ok := curSet[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	for _, id := range current {
		if _, ok := desSet[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	return toAdd, toRemove
}
