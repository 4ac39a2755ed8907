package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
)

type formRow struct {
	OwnerID   string         `db:"owner_id"`
	FormType  string         `db:"form_type"`
	Document  types.JSONText `db:"document"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r formRow) document() (form.Document, error) {
	s, err := form.Parse(r.Document)
	if err != nil {
		return form.Document{}, errors.Wrapf(err, "decoding form schema %s/%s", r.OwnerID, r.FormType)
	}
	return form.Document{
		Key:       form.Key{OwnerID: r.OwnerID, FormType: r.FormType},
		Schema:    s,
		UpdatedAt: r.UpdatedAt.UTC(),
	}, nil
}

type formRepository struct {
	db *sqlx.DB
}

var _ form.Repository = (*formRepository)(nil)

func NewFormRepository(db *sqlx.DB) form.Repository {
	return &formRepository{db: db}
}

func (repo *formRepository) GetSchema(ctx context.Context, key form.Key) (form.Schema, error) {
	q := "SELECT owner_id, form_type, document, updated_at FROM form_schema WHERE owner_id = ? AND form_type = ?"

	var r formRow
	if err := repo.db.GetContext(ctx, &r, rebind(repo.db, q), key.OwnerID, key.FormType); err != nil {
		return form.Schema{}, trapNoRowsErr(err, form.ErrNotFound, "getting form schema")
	}
	doc, err := r.document()
	if err != nil {
		return form.Schema{}, err
	}
	return doc.Schema, nil
}

// PutSchema replaces the whole document in a single statement.
func (repo *formRepository) PutSchema(ctx context.Context, key form.Key, s form.Schema, updatedAt time.Time) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encoding form schema")
	}
	q := `INSERT INTO form_schema (owner_id, form_type, document, updated_at)
		VALUES (:owner_id, :form_type, :document, :updated_at)
		ON CONFLICT (owner_id, form_type) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`
	row := formRow{OwnerID: key.OwnerID, FormType: key.FormType, Document: doc, UpdatedAt: updatedAt.UTC()}
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		return errors.Wrap(err, "saving form schema")
	}
	return nil
}

func (repo *formRepository) DeleteSchema(ctx context.Context, key form.Key) error {
	q := "DELETE FROM form_schema WHERE owner_id = ? AND form_type = ?"
	res, err := repo.db.ExecContext(ctx, rebind(repo.db, q), key.OwnerID, key.FormType)
	if err != nil {
		return errors.Wrap(err, "deleting form schema")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return form.ErrNotFound
	}
	return nil
}

func (repo *formRepository) ListSchemas(ctx context.Context, ownerID string) ([]form.Document, error) {
	q := "SELECT owner_id, form_type, document, updated_at FROM form_schema WHERE owner_id = ? ORDER BY form_type"

	var rows []formRow
	if err := repo.db.SelectContext(ctx, &rows, rebind(repo.db, q), ownerID); err != nil {
		return nil, errors.Wrap(err, "listing form schemas")
	}
	docs := make([]form.Document, 0, len(rows))
	for _, r := range rows {
		doc, err := r.document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
