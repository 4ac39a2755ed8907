package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/registration"
)

const registrationColumns = `id, program_id, form_type, "values", email, status, payment_ref, created_at, updated_at`

type registrationRow struct {
	ID         string         `db:"id"`
	ProgramID  string         `db:"program_id"`
	FormType   string         `db:"form_type"`
	Values     types.JSONText `db:"values"`
	Email      string         `db:"email"`
	Status     string         `db:"status"`
	PaymentRef null.String    `db:"payment_ref"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func toRegistrationRow(reg registration.Registration) (registrationRow, error) {
	values := reg.Values
	if values == nil {
		values = form.Values{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return registrationRow{}, errors.Wrap(err, "encoding registration values")
	}
	return registrationRow{
		ID:         reg.ID,
		ProgramID:  reg.ProgramID,
		FormType:   reg.FormType,
		Values:     data,
		Email:      reg.Email,
		Status:     reg.Status,
		PaymentRef: null.NewString(reg.PaymentRef, reg.PaymentRef != ""),
		CreatedAt:  reg.CreatedAt.UTC(),
		UpdatedAt:  reg.UpdatedAt.UTC(),
	}, nil
}

func (r registrationRow) registration() (registration.Registration, error) {
	values := make(form.Values)
	if err := r.Values.Unmarshal(&values); err != nil {
		return registration.Registration{}, errors.Wrap(err, "decoding registration values")
	}
	return registration.Registration{
		ID:         r.ID,
		ProgramID:  r.ProgramID,
		FormType:   r.FormType,
		Values:     values,
		Email:      r.Email,
		Status:     r.Status,
		PaymentRef: r.PaymentRef.String,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}, nil
}

type registrationRepository struct {
	db *sqlx.DB
}

var _ registration.Repository = (*registrationRepository)(nil)

func NewRegistrationRepository(db *sqlx.DB) registration.Repository {
	return &registrationRepository{db: db}
}

func (repo *registrationRepository) CreateRegistration(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	row, err := toRegistrationRow(reg)
	if err != nil {
		return registration.Registration{}, err
	}
	q := `INSERT INTO registration (` + registrationColumns + `)
		VALUES (:id, :program_id, :form_type, :values, :email, :status, :payment_ref, :created_at, :updated_at)`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		return registration.Registration{}, errors.Wrap(err, "inserting registration")
	}
	return reg, nil
}

func (repo *registrationRepository) GetRegistration(ctx context.Context, id string) (registration.Registration, error) {
	q := "SELECT " + registrationColumns + " FROM registration WHERE id = ?"

	var r registrationRow
	if err := repo.db.GetContext(ctx, &r, rebind(repo.db, q), id); err != nil {
		return registration.Registration{}, trapNoRowsErr(err, registration.ErrNotFound, "getting registration")
	}
	return r.registration()
}

func (repo *registrationRepository) QueryRegistrations(ctx context.Context, filter *registration.QueryFilter, orderings []core.DBOrdering) ([]registration.Registration, error) {
	w := new(where)
	if filter != nil {
		if filter.ProgramID != "" {
			w.add("program_id = ?", filter.ProgramID)
		}
		if filter.FormType != "" {
			w.add("form_type = ?", filter.FormType)
		}
		if filter.Status != "" {
			w.add("status = ?", filter.Status)
		}
		if filter.Search != "" {
			w.add("email ILIKE ?", "%"+filter.Search+"%")
		}
		if !filter.CreatedFrom.IsZero() {
			w.add("created_at >= ?", filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			w.add("created_at <= ?", filter.CreatedTo.UTC())
		}
	}

	q := "SELECT " + registrationColumns + " FROM registration" + w.String() +
		" ORDER BY " + core.OrderByClause(orderings, registration.OrderingFields, core.DBOrdering{Field: "created_at"})

	var rows []registrationRow
	if err := repo.db.SelectContext(ctx, &rows, rebind(repo.db, q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying registrations")
	}
	regs := make([]registration.Registration, 0, len(rows))
	for _, r := range rows {
		reg, err := r.registration()
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, nil
}

func (repo *registrationRepository) UpdateRegistration(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	q := "UPDATE registration SET status = ?, payment_ref = ?, updated_at = ? WHERE id = ?"
	ref := null.NewString(reg.PaymentRef, reg.PaymentRef != "")
	res, err := repo.db.ExecContext(ctx, rebind(repo.db, q), reg.Status, ref, reg.UpdatedAt.UTC(), reg.ID)
	if err != nil {
		return registration.Registration{}, errors.Wrap(err, "updating registration")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return registration.Registration{}, registration.ErrNotFound
	}
	return repo.GetRegistration(ctx, reg.ID)
}
