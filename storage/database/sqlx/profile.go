package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core/profile"
)

const profileColumns = `id, email, name, roles, created_at, updated_at`

type profileRow struct {
	ID        string         `db:"id"`
	Email     string         `db:"email"`
	Name      string         `db:"name"`
	Roles     pq.StringArray `db:"roles"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func toProfileRow(p profile.Profile) profileRow {
	roles := p.Roles
	if roles == nil {
		roles = []string{}
	}
	return profileRow{
		ID:        p.ID,
		Email:     p.Email,
		Name:      p.Name,
		Roles:     roles,
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
}

func (r profileRow) profile() profile.Profile {
	roles := []string(r.Roles)
	if roles == nil {
		roles = []string{}
	}
	return profile.Profile{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		Roles:     roles,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type profileRepository struct {
	db *sqlx.DB
}

var _ profile.Repository = (*profileRepository)(nil)

func NewProfileRepository(db *sqlx.DB) profile.Repository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	q := `INSERT INTO profile (` + profileColumns + `) VALUES (:id, :email, :name, :roles, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toProfileRow(p)); err != nil {
		return profile.Profile{}, errors.Wrap(err, "inserting profile")
	}
	return repo.GetProfile(ctx, p.ID)
}

func (repo *profileRepository) GetProfile(ctx context.Context, id string) (profile.Profile, error) {
	q := "SELECT " + profileColumns + " FROM profile WHERE id = ?"

	var r profileRow
	if err := repo.db.GetContext(ctx, &r, rebind(repo.db, q), id); err != nil {
		return profile.Profile{}, trapNoRowsErr(err, profile.ErrNotFound, "getting profile")
	}
	return r.profile(), nil
}

func (repo *profileRepository) QueryProfiles(ctx context.Context, filter *profile.QueryFilter) ([]profile.Profile, error) {
	w := new(where)
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			w.add("(name ILIKE ? OR email ILIKE ?)", val, val)
		}
		// profiles with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			patterns := make([]string, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				patterns = append(patterns, role+"%")
			}
			w.add("EXISTS (SELECT 1 FROM UNNEST(roles) profile_role WHERE profile_role LIKE ANY (?))", pq.Array(patterns))
		}
	}

	q := "SELECT " + profileColumns + " FROM profile" + w.String() + " ORDER BY created_at"

	var rows []profileRow
	if err := repo.db.SelectContext(ctx, &rows, rebind(repo.db, q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying profiles")
	}
	profiles := make([]profile.Profile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, r.profile())
	}
	return profiles, nil
}

func (repo *profileRepository) UpdateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	q := `UPDATE profile SET email = :email, name = :name, roles = :roles, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toProfileRow(p))
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "updating profile")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return profile.Profile{}, profile.ErrNotFound
	}
	return repo.GetProfile(ctx, p.ID)
}
