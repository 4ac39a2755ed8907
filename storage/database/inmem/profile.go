package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core/profile"
)

type profileRepository struct {
	db *profileTable
}

var _ profile.Repository = (*profileRepository)(nil)

func NewProfileRepository(db *DB) profile.Repository {
	return &profileRepository{db: db.profile}
}

func copyProfile(p profile.Profile) profile.Profile {
	p.Roles = append([]string{}, p.Roles...)
	return p
}

func (repo *profileRepository) CreateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p = copyProfile(p)
	repo.db.table[p.ID] = &p
	return copyProfile(p), nil
}

func (repo *profileRepository) GetProfile(_ context.Context, id string) (profile.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.table[id]; ok {
		return copyProfile(*p), nil
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) QueryProfiles(_ context.Context, filter *profile.QueryFilter) ([]profile.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	profiles := make([]profile.Profile, 0)
	for _, p := range repo.db.table {
		if filter != nil && !matchProfile(*p, filter) {
			continue
		}
		profiles = append(profiles, copyProfile(*p))
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].CreatedAt.Before(profiles[j].CreatedAt) })
	return profiles, nil
}

func matchProfile(p profile.Profile, filter *profile.QueryFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(p.Name), search) && !strings.Contains(strings.ToLower(p.Email), search) {
			return false
		}
	}
	if len(filter.Roles) > 0 {
		// any role starting with any of the requested ones
		var found bool
		for _, role := range filter.Roles {
			if p.RoleStartsWith(role) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (repo *profileRepository) UpdateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[p.ID]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	p = copyProfile(p)
	p.CreatedAt = orig.CreatedAt
	repo.db.table[p.ID] = &p
	return copyProfile(p), nil
}
