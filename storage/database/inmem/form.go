package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
)

type formRepository struct {
	db *formTable
}

var _ form.Repository = (*formRepository)(nil)

func NewFormRepository(db *DB) form.Repository {
	return &formRepository{db: db.form}
}

func (repo *formRepository) GetSchema(_ context.Context, key form.Key) (form.Schema, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	doc, ok := repo.db.table[key]
	if !ok {
		return form.Schema{}, form.ErrNotFound
	}
	return doc.Schema.Clone(), nil
}

func (repo *formRepository) PutSchema(_ context.Context, key form.Key, s form.Schema, updatedAt time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[key] = &form.Document{Key: key, Schema: s.Clone(), UpdatedAt: updatedAt.UTC()}
	return nil
}

func (repo *formRepository) DeleteSchema(_ context.Context, key form.Key) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[key]; !ok {
		return form.ErrNotFound
	}
	delete(repo.db.table, key)
	return nil
}

func (repo *formRepository) ListSchemas(_ context.Context, ownerID string) ([]form.Document, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	docs := make([]form.Document, 0)
	for key, doc := range repo.db.table {
		if key.OwnerID != ownerID {
			continue
		}
		d := *doc
		d.Schema = doc.Schema.Clone()
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].FormType < docs[j].FormType })
	return docs, nil
}
