package form

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
)

// ErrNotFound is returned by repositories when no schema is stored under a key.
var ErrNotFound = errors.New("form schema not found")

// Document is a stored schema.
type Document struct {
	Key
	Schema    Schema    `json:"schema"`
	UpdatedAt time.Time `json:"updated_at"`
}

type (
	// Repository stores one opaque schema document per Key.
	// PutSchema replaces the whole document atomically.
	Repository interface {
		GetSchema(ctx context.Context, key Key) (Schema, error)
		PutSchema(ctx context.Context, key Key, s Schema, updatedAt time.Time) error
		DeleteSchema(ctx context.Context, key Key) error
		ListSchemas(ctx context.Context, ownerID string) ([]Document, error)
	}

	Service interface {
		// Get returns the schema stored under key, or ErrSchemaUnavailable.
		Get(ctx context.Context, key Key) (Schema, error)
		List(ctx context.Context, ownerID string) ([]Document, error)
		// Replace checks s and swaps it in as the whole document.
		Replace(ctx context.Context, key Key, s Schema) (Schema, error)
		Delete(ctx context.Context, key Key) error
		// Apply runs builder operations on the stored schema (an empty one if none)
		// and persists the result when it changed.
		Apply(ctx context.Context, key Key, edit func(b *Builder)) (Schema, bool, error)
	}

	service struct {
		repo   Repository
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, logger core.Logger) Service {
	return &service{repo: repo, logger: logger}
}

// CheckKey validates the owner id and form-type tag of key.
func CheckKey(key Key) error {
	var fldErrs []core.FieldError
	if key.OwnerID == "" {
		fldErrs = append(fldErrs, core.FieldError{Field: "owner_id", Error: "this field is required"})
	}
	if !core.IsFormType(key.FormType) {
		fldErrs = append(fldErrs, core.FieldError{Field: "form_type", Error: "only lowercase letters, digits and underscores are allowed"})
	}
	if fldErrs != nil {
		return core.NewValidationError(errors.New("invalid form key"), fldErrs...)
	}
	return nil
}

func (svc *service) Get(ctx context.Context, key Key) (Schema, error) {
	s, err := svc.repo.GetSchema(ctx, key)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			// storage trouble is reported, the visitor only sees an unavailable form
			svc.logger.Error(fmt.Sprintf("loading form schema %s: %v", key, err), err)
		}
		return Schema{}, errors.Wrap(ErrSchemaUnavailable, key.String())
	}
	return s, nil
}

func (svc *service) List(ctx context.Context, ownerID string) ([]Document, error) {
	docs, err := svc.repo.ListSchemas(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "listing form schemas")
	}
	return docs, nil
}

func (svc *service) Replace(ctx context.Context, key Key, s Schema) (Schema, error) {
	if err := CheckKey(key); err != nil {
		return Schema{}, err
	}
	if err := s.Check(); err != nil {
		return Schema{}, err
	}
	s = s.Clone()
	if err := svc.repo.PutSchema(ctx, key, s, time.Now().UTC()); err != nil {
		return Schema{}, errors.Wrap(err, "saving form schema")
	}
	return s, nil
}

func (svc *service) Delete(ctx context.Context, key Key) error {
	if err := svc.repo.DeleteSchema(ctx, key); err != nil {
		return errors.Wrap(err, "deleting form schema")
	}
	return nil
}

func (svc *service) Apply(ctx context.Context, key Key, edit func(b *Builder)) (Schema, bool, error) {
	if err := CheckKey(key); err != nil {
		return Schema{}, false, err
	}
	current, err := svc.repo.GetSchema(ctx, key)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return Schema{}, false, errors.Wrap(err, "loading form schema")
		}
		current = Schema{}
	}

	var changed bool
	b := NewBuilder(current, func(Schema) { changed = true }, WithLogger(svc.logger))
	edit(b)
	if !changed {
		return b.Schema(), false, nil
	}

	next := b.Schema()
	if err := svc.repo.PutSchema(ctx, key, next, time.Now().UTC()); err != nil {
		return Schema{}, false, errors.Wrap(err, "saving form schema")
	}
	return next, true, nil
}
