package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/program"
)

const programColumns = `id, slug, title, summary, description, category, price, currency, is_published, created_at, updated_at`

type programRow struct {
	ID          string      `db:"id"`
	Slug        string      `db:"slug"`
	Title       string      `db:"title"`
	Summary     string      `db:"summary"`
	Description null.String `db:"description"`
	Category    string      `db:"category"`
	Price       int64       `db:"price"`
	Currency    string      `db:"currency"`
	IsPublished bool        `db:"is_published"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func toProgramRow(prg program.Program) programRow {
	return programRow{
		ID:          prg.ID,
		Slug:        prg.Slug,
		Title:       prg.Title,
		Summary:     prg.Summary,
		Description: null.NewString(prg.Description, prg.Description != ""),
		Category:    prg.Category,
		Price:       prg.Price,
		Currency:    prg.Currency,
		IsPublished: prg.IsPublished,
		CreatedAt:   prg.CreatedAt.UTC(),
		UpdatedAt:   prg.UpdatedAt.UTC(),
	}
}

func (r programRow) program() program.Program {
	return program.Program{
		ID:          r.ID,
		Slug:        r.Slug,
		Title:       r.Title,
		Summary:     r.Summary,
		Description: r.Description.String,
		Category:    r.Category,
		Price:       r.Price,
		Currency:    r.Currency,
		IsPublished: r.IsPublished,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type programRepository struct {
	db *sqlx.DB
}

var _ program.Repository = (*programRepository)(nil)

func NewProgramRepository(db *sqlx.DB) program.Repository {
	return &programRepository{db: db}
}

func (repo *programRepository) CheckSlugUniqueness(ctx context.Context, slug string, excluded ...program.Program) error {
	w := new(where)
	w.add("slug = ?", slug)
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, prg := range excluded {
			ids = append(ids, prg.ID)
		}
		w.add("id NOT IN (?)", ids)
	}
	q, args, err := sqlx.In("SELECT EXISTS (SELECT 1 FROM program"+w.String()+")", w.args...)
	if err != nil {
		return errors.Wrap(err, "checking program slug")
	}

	var exists bool
	if err = repo.db.GetContext(ctx, &exists, rebind(repo.db, q), args...); err != nil {
		return errors.Wrap(err, "checking program slug")
	}
	if exists {
		return program.ErrSlugExists
	}
	return nil
}

func (repo *programRepository) CreateProgram(ctx context.Context, prg program.Program) (program.Program, error) {
	q := `INSERT INTO program (` + programColumns + `)
		VALUES (:id, :slug, :title, :summary, :description, :category, :price, :currency, :is_published, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toProgramRow(prg)); err != nil {
		return program.Program{}, errors.Wrap(err, "inserting program")
	}
	return prg, nil
}

func (repo *programRepository) QueryPrograms(ctx context.Context, filter *program.QueryFilter, orderings []core.DBOrdering) ([]program.Program, error) {
	w := new(where)
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			w.add("(title ILIKE ? OR summary ILIKE ?)", val, val)
		}
		if filter.Category != "" {
			w.add("category = ?", filter.Category)
		}
		if filter.Published != nil {
			w.add("is_published = ?", *filter.Published)
		}
	}

	q := "SELECT " + programColumns + " FROM program" + w.String() +
		" ORDER BY " + core.OrderByClause(orderings, program.OrderingFields, core.DBOrdering{Field: "created_at"})

	var rows []programRow
	if err := repo.db.SelectContext(ctx, &rows, rebind(repo.db, q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying programs")
	}
	prgs := make([]program.Program, 0, len(rows))
	for _, r := range rows {
		prgs = append(prgs, r.program())
	}
	return prgs, nil
}

func (repo *programRepository) GetProgram(ctx context.Context, filter program.GetFilter) (program.Program, error) {
	var (
		q   = "SELECT " + programColumns + " FROM program WHERE "
		arg string
	)
	switch {
	case filter.ID != "":
		q, arg = q+"id = ?", filter.ID
	case filter.Slug != "":
		q, arg = q+"slug = ?", filter.Slug
	default:
		return program.Program{}, program.ErrNotFound
	}

	var r programRow
	if err := repo.db.GetContext(ctx, &r, rebind(repo.db, q), arg); err != nil {
		return program.Program{}, trapNoRowsErr(err, program.ErrNotFound, "getting program")
	}
	return r.program(), nil
}

func (repo *programRepository) UpdateProgram(ctx context.Context, prg program.Program) (program.Program, error) {
	q := `UPDATE program SET slug = :slug, title = :title, summary = :summary, description = :description,
		category = :category, price = :price, currency = :currency, is_published = :is_published, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toProgramRow(prg))
	if err != nil {
		return program.Program{}, errors.Wrap(err, "updating program")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return program.Program{}, program.ErrNotFound
	}
	return repo.GetProgram(ctx, program.GetFilter{ID: prg.ID})
}

func (repo *programRepository) DeleteProgramsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In("DELETE FROM program WHERE id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "deleting programs")
	}
	if _, err = repo.db.ExecContext(ctx, rebind(repo.db, q), args...); err != nil {
		return errors.Wrap(err, "deleting programs")
	}
	return nil
}
