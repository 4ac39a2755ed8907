package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/program"
)

type programRepository struct {
	db    *programTable
	forms *formTable
}

var _ program.Repository = (*programRepository)(nil)

func NewProgramRepository(db *DB) program.Repository {
	return &programRepository{db: db.program, forms: db.form}
}

func (repo *programRepository) query() []program.Program {
	prgs := make([]program.Program, 0, len(repo.db.table))
	for _, prg := range repo.db.table {
		prgs = append(prgs, *prg)
	}
	return prgs
}

func (repo *programRepository) CheckSlugUniqueness(_ context.Context, slug string, excluded ...program.Program) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, prg := range repo.query() {
		if prg.Slug == slug && !isExcludedProgram(prg, excluded) {
			return program.ErrSlugExists
		}
	}
	return nil
}

func (repo *programRepository) CreateProgram(_ context.Context, prg program.Program) (program.Program, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[prg.ID] = &prg
	return prg, nil
}

func (repo *programRepository) QueryPrograms(_ context.Context, filter *program.QueryFilter, orderings []core.DBOrdering) ([]program.Program, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	prgs := make([]program.Program, 0)
	for _, prg := range repo.query() {
		if filter != nil && !matchProgram(prg, filter) {
			continue
		}
		prgs = append(prgs, prg)
	}
	sortPrograms(prgs, orderings)
	return prgs, nil
}

func matchProgram(prg program.Program, filter *program.QueryFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(prg.Title), search) && !strings.Contains(strings.ToLower(prg.Summary), search) {
			return false
		}
	}
	if filter.Category != "" && prg.Category != filter.Category {
		return false
	}
	if filter.Published != nil && prg.IsPublished != *filter.Published {
		return false
	}
	return true
}

func sortPrograms(prgs []program.Program, orderings []core.DBOrdering) {
	if len(orderings) == 0 {
		orderings = []core.DBOrdering{{Field: "created_at"}}
	}
	sort.SliceStable(prgs, func(i, j int) bool {
		for _, ord := range orderings {
			var c int
			switch ord.Field {
			case "title":
				c = strings.Compare(prgs[i].Title, prgs[j].Title)
			case "price":
				c = compareInt64(prgs[i].Price, prgs[j].Price)
			case "created_at":
				c = compareTime(prgs[i].CreatedAt, prgs[j].CreatedAt)
			case "updated_at":
				c = compareTime(prgs[i].UpdatedAt, prgs[j].UpdatedAt)
			}
			if c != 0 {
				return (c < 0) == ord.Ascending
			}
		}
		return false
	})
}

func (repo *programRepository) GetProgram(_ context.Context, filter program.GetFilter) (program.Program, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if prg, ok := repo.db.table[filter.ID]; ok {
			return *prg, nil
		}
		return program.Program{}, program.ErrNotFound
	}
	for _, prg := range repo.query() {
		if filter.Slug != "" && prg.Slug == filter.Slug {
			return prg, nil
		}
	}
	return program.Program{}, program.ErrNotFound
}

func (repo *programRepository) UpdateProgram(_ context.Context, prg program.Program) (program.Program, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[prg.ID]
	if !ok {
		return program.Program{}, program.ErrNotFound
	}
	prg.CreatedAt = orig.CreatedAt
	repo.db.table[prg.ID] = &prg
	return prg, nil
}

func (repo *programRepository) DeleteProgramsByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.forms.Lock()
	defer repo.forms.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
		// forms belong to their program
		for key := range repo.forms.table {
			if key.OwnerID == id {
				delete(repo.forms.table, key)
			}
		}
	}
	return nil
}

func isExcludedProgram(prg program.Program, excluded []program.Program) bool {
	for _, ex := range excluded {
		if ex.ID == prg.ID {
			return true
		}
	}
	return false
}
