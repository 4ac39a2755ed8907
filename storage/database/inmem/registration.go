package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/registration"
)

type registrationRepository struct {
	db *registrationTable
}

var _ registration.Repository = (*registrationRepository)(nil)

func NewRegistrationRepository(db *DB) registration.Repository {
	return &registrationRepository{db: db.registration}
}

func copyRegistration(reg registration.Registration) registration.Registration {
	reg.Values = reg.Values.Clone()
	return reg
}

func (repo *registrationRepository) CreateRegistration(_ context.Context, reg registration.Registration) (registration.Registration, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	reg = copyRegistration(reg)
	repo.db.table[reg.ID] = &reg
	return copyRegistration(reg), nil
}

func (repo *registrationRepository) GetRegistration(_ context.Context, id string) (registration.Registration, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if reg, ok := repo.db.table[id]; ok {
		return copyRegistration(*reg), nil
	}
	return registration.Registration{}, registration.ErrNotFound
}

func (repo *registrationRepository) QueryRegistrations(_ context.Context, filter *registration.QueryFilter, orderings []core.DBOrdering) ([]registration.Registration, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	regs := make([]registration.Registration, 0)
	for _, reg := range repo.db.table {
		if filter != nil && !matchRegistration(*reg, filter) {
			continue
		}
		regs = append(regs, copyRegistration(*reg))
	}

	if len(orderings) == 0 {
		orderings = []core.DBOrdering{{Field: "created_at"}}
	}
	sort.SliceStable(regs, func(i, j int) bool {
		for _, ord := range orderings {
			var c int
			switch ord.Field {
			case "created_at":
				c = compareTime(regs[i].CreatedAt, regs[j].CreatedAt)
			case "updated_at":
				c = compareTime(regs[i].UpdatedAt, regs[j].UpdatedAt)
			case "status":
				c = strings.Compare(regs[i].Status, regs[j].Status)
			case "email":
				c = strings.Compare(regs[i].Email, regs[j].Email)
			}
			if c != 0 {
				return (c < 0) == ord.Ascending
			}
		}
		return false
	})
	return regs, nil
}

func matchRegistration(reg registration.Registration, filter *registration.QueryFilter) bool {
	if filter.ProgramID != "" && reg.ProgramID != filter.ProgramID {
		return false
	}
	if filter.FormType != "" && reg.FormType != filter.FormType {
		return false
	}
	if filter.Status != "" && reg.Status != filter.Status {
		return false
	}
	if filter.Search != "" && !strings.Contains(strings.ToLower(reg.Email), strings.ToLower(filter.Search)) {
		return false
	}
	if !filter.CreatedFrom.IsZero() && reg.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && reg.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func (repo *registrationRepository) UpdateRegistration(_ context.Context, reg registration.Registration) (registration.Registration, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[reg.ID]
	if !ok {
		return registration.Registration{}, registration.ErrNotFound
	}
	// only the payment outcome changes after submission
	orig.Status = reg.Status
	orig.PaymentRef = reg.PaymentRef
	orig.UpdatedAt = reg.UpdatedAt
	return copyRegistration(*orig), nil
}
