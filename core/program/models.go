package program

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
)

// Categories
const (
	CategoryCourse  = "course"
	CategoryProgram = "program"
	CategorySkill   = "skill"
)

var Categories = []string{CategoryCourse, CategoryProgram, CategorySkill}

// Program is an offering of the academy. It owns the forms visitors register with.
type Program struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"` // sanitized HTML
	Category    string    `json:"category"`
	Price       int64     `json:"price"` // minor units
	Currency    string    `json:"currency"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewProgram contains information needed to create a new Program.
type NewProgram struct {
	Slug        string `json:"slug" validate:"required,slug,max=80"`
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Summary     string `json:"summary" validate:"max=500"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"required,oneof=course program skill"`
	Price       int64  `json:"price" validate:"min=0"`
	Currency    string `json:"currency" validate:"omitempty,currency"`
	IsPublished bool   `json:"is_published"`
}

func (np *NewProgram) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	np.Slug = core.CleanString(np.Slug, true /* lower */)
	np.Title = core.CleanString(np.Title)
	np.Summary = core.CleanString(np.Summary)
	np.Currency = core.CleanString(np.Currency)
	if np.Currency == "" {
		np.Currency = DefaultCurrency
	}
	if err := validate.Struct(np); err != nil {
		return err
	}
	return svc.CheckSlugUniqueness(ctx, np.Slug)
}

// UpdateProgram defines what information may be provided to modify an existing Program.
type UpdateProgram struct {
	Slug        *string `json:"slug" validate:"omitempty,slug,max=80"`
	Title       *string `json:"title" validate:"omitempty,notblank,max=200"`
	Summary     *string `json:"summary" validate:"omitempty,max=500"`
	Description *string `json:"description"`
	Category    *string `json:"category" validate:"omitempty,oneof=course program skill"`
	Price       *int64  `json:"price" validate:"omitempty,min=0"`
	Currency    *string `json:"currency" validate:"omitempty,currency"`
	IsPublished *bool   `json:"is_published"`
}

func (up *UpdateProgram) Validate(ctx context.Context, origPrg Program, validate *validator.Validate, svc Service) error {
	if up.Slug != nil {
		slug := core.CleanString(*up.Slug, true /* lower */)
		up.Slug = &slug
	}
	if up.Title != nil {
		title := core.CleanString(*up.Title)
		up.Title = &title
	}
	if err := validate.Struct(up); err != nil {
		return err
	}
	if up.Slug != nil && *up.Slug != origPrg.Slug {
		return svc.CheckSlugUniqueness(ctx, *up.Slug, origPrg)
	}
	return nil
}

type QueryFilter struct {
	Search    string `query:"search"`
	Category  string `query:"category"`
	Published *bool  `query:"-"` // parsed by the handlers
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Category == "" && qf.Published == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
}

type GetFilter struct {
	ID   string
	Slug string
}
