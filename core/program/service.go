package program

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
)

const DefaultCurrency = "USD"

var (
	// errors
	ErrNotFound   = errors.New("program not found")
	ErrSlugExists = errors.New("a program with this slug already exists")
)

// Orderable fields of QueryPrograms.
var OrderingFields = []string{"title", "price", "created_at", "updated_at"}

type (
	Repository interface {
		CheckSlugUniqueness(ctx context.Context, slug string, excluded ...Program) error
		CreateProgram(ctx context.Context, prg Program) (Program, error)
		// QueryPrograms applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Program.Title or Program.Summary.
		QueryPrograms(ctx context.Context, filter *QueryFilter, orderings []core.DBOrdering) ([]Program, error)
		GetProgram(ctx context.Context, filter GetFilter) (Program, error)
		UpdateProgram(ctx context.Context, prg Program) (Program, error)
		DeleteProgramsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		CheckSlugUniqueness(ctx context.Context, slug string, excluded ...Program) error
		Create(ctx context.Context, np NewProgram) (Program, error)
		Query(ctx context.Context, filter *QueryFilter, orderings []core.DBOrdering) ([]Program, error)
		GetByID(ctx context.Context, id string) (Program, error)
		GetBySlug(ctx context.Context, slug string) (Program, error)
		Update(ctx context.Context, origPrg Program, up UpdateProgram) (Program, error)
		Delete(ctx context.Context, ids ...string) error
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

func (svc *service) CheckSlugUniqueness(ctx context.Context, slug string, excluded ...Program) error {
	if err := svc.repo.CheckSlugUniqueness(ctx, slug, excluded...); err != nil {
		if err == ErrSlugExists {
			return core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, np NewProgram) (Program, error) {
	now := time.Now().UTC()
	prg := Program{
		ID:          uuid.New().String(),
		Slug:        np.Slug,
		Title:       np.Title,
		Summary:     np.Summary,
		Description: form.SanitizeHTML(np.Description),
		Category:    np.Category,
		Price:       np.Price,
		Currency:    np.Currency,
		IsPublished: np.IsPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if prg.Currency == "" {
		prg.Currency = DefaultCurrency
	}
	return svc.repo.CreateProgram(ctx, prg)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, orderings []core.DBOrdering) ([]Program, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	return svc.repo.QueryPrograms(ctx, filter, orderings)
}

func (svc *service) GetByID(ctx context.Context, id string) (Program, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Program{}, ErrNotFound
	}
	return svc.repo.GetProgram(ctx, GetFilter{ID: id})
}

func (svc *service) GetBySlug(ctx context.Context, slug string) (Program, error) {
	return svc.repo.GetProgram(ctx, GetFilter{Slug: core.CleanString(slug, true /* lower */)})
}

func (svc *service) Update(ctx context.Context, prg Program, up UpdateProgram) (Program, error) {
	if up.Slug != nil {
		prg.Slug = *up.Slug
	}
	if up.Title != nil {
		prg.Title = *up.Title
	}
	if up.Summary != nil {
		prg.Summary = core.CleanString(*up.Summary)
	}
	if up.Description != nil {
		prg.Description = form.SanitizeHTML(*up.Description)
	}
	if up.Category != nil {
		prg.Category = *up.Category
	}
	if up.Price != nil {
		prg.Price = *up.Price
	}
	if up.Currency != nil {
		prg.Currency = *up.Currency
	}
	if up.IsPublished != nil {
		prg.IsPublished = *up.IsPublished
	}
	prg.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProgram(ctx, prg)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteProgramsByID(ctx, ids...)
}
