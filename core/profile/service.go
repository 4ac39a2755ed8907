package profile

import (
	"context"
	"errors"
	"time"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
)

var (
	// errors
	ErrNotFound  = errors.New("profile not found")
	ErrForbidden = errors.New("not enough rights to manage this profile")

	errNoPermsToSetRoles = "not enough rights to set these roles"
)

type (
	Repository interface {
		CreateProfile(ctx context.Context, p Profile) (Profile, error)
		GetProfile(ctx context.Context, id string) (Profile, error)
		// QueryProfiles applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Profile.Name or Profile.Email.
		QueryProfiles(ctx context.Context, filter *QueryFilter) ([]Profile, error)
		UpdateProfile(ctx context.Context, p Profile) (Profile, error)
	}

	Service interface {
		// Ensure returns the profile of an authenticated identity, creating it on first sight.
		Ensure(ctx context.Context, id, email, name string) (Profile, error)
		GetByID(ctx context.Context, id string) (Profile, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Profile, error)
		// SetRoles replaces the roles of target; actor cannot grant a role above their own.
		SetRoles(ctx context.Context, actor, target Profile, roles []string) (Profile, error)
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

func (svc *service) Ensure(ctx context.Context, id, email, name string) (Profile, error) {
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)

	p, err := svc.repo.GetProfile(ctx, id)
	switch {
	case err == nil:
		if (email == "" || p.Email == email) && (name == "" || p.Name == name) {
			return p, nil
		}
		if email != "" {
			p.Email = email
		}
		if name != "" {
			p.Name = name
		}
		p.UpdatedAt = time.Now().UTC()
		return svc.repo.UpdateProfile(ctx, p)
	case err != ErrNotFound:
		return Profile{}, err
	}

	now := time.Now().UTC()
	p = Profile{
		ID:        id,
		Email:     email,
		Name:      name,
		Roles:     []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	svc.logger.Info("creating profile", map[string]interface{}{"profile_id": id})
	return svc.repo.CreateProfile(ctx, p)
}

func (svc *service) GetByID(ctx context.Context, id string) (Profile, error) {
	return svc.repo.GetProfile(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Profile, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	return svc.repo.QueryProfiles(ctx, filter)
}

func (svc *service) SetRoles(ctx context.Context, actor, target Profile, roles []string) (Profile, error) {
	actorMax := MaxRolePriority(actor.Roles)
	if MaxRolePriority(target.Roles) > actorMax {
		return Profile{}, ErrForbidden
	}
	if MaxRolePriority(roles) > actorMax {
		return Profile{}, core.NewValidationError(nil, core.FieldError{Field: "roles", Error: errNoPermsToSetRoles})
	}
	target.Roles = roles
	target.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProfile(ctx, target)
}
