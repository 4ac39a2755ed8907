package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/profile"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/program"
	"github.com/Mufti-IBAK/mubeen-website-sub001/storage/database"
)

// DatabaseURLEnv names the env var pointing the storage tests at a scratch PostgreSQL database.
const DatabaseURLEnv = "TEST_DATABASE_URL"

// OpenDB opens and migrates the test database, skipping t when none is configured.
// Every table is emptied when t ends.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv(DatabaseURLEnv)
	if dsn == "" {
		t.Skipf("%s not set", DatabaseURLEnv)
	}
	db, err := database.OpenURL(dsn)
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	if err = database.Migrate(db.DB); err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Exec("TRUNCATE registration, form_schema, program, profile")
		_ = db.Close()
	})
	return db
}

func CreateProgram(
	t *testing.T,
	repo program.Repository,
	slug, title string,
	published bool,
	createdAt ...time.Time,
) program.Program {
	t.Helper()

	tstamp := time.Now().UTC().Truncate(time.Microsecond)
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	prg := program.Program{
		ID:          uuid.New().String(),
		Slug:        slug,
		Title:       title,
		Summary:     title + " summary",
		Category:    program.CategoryCourse,
		Currency:    program.DefaultCurrency,
		IsPublished: published,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	}
	prg, err := repo.CreateProgram(context.Background(), prg)
	if err != nil {
		t.Fatalf("CreateProgram() failed: %v", err)
	}
	return prg
}

func CreateProfile(t *testing.T, repo profile.Repository, id, name, email string, roles []string) profile.Profile {
	t.Helper()

	if roles == nil {
		roles = []string{}
	}
	tstamp := time.Now().UTC().Truncate(time.Microsecond)
	p := profile.Profile{
		ID:        id,
		Email:     email,
		Name:      name,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	p, err := repo.CreateProfile(context.Background(), p)
	if err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	return p
}

func PutSchema(t *testing.T, repo form.Repository, key form.Key, s form.Schema) {
	t.Helper()

	if err := repo.PutSchema(context.Background(), key, s, time.Now().UTC()); err != nil {
		t.Fatalf("PutSchema() failed: %v", err)
	}
}

// RegistrationSchema is the form most tests register with.
func RegistrationSchema() form.Schema {
	return form.Schema{
		Title:       "Apply",
		Description: "Tell us about yourself",
		Fields: []form.Field{
			{ID: "fullName", Type: form.FieldText, Label: "Full name", Required: true, Placeholder: "Your name"},
			{ID: "email", Type: form.FieldEmail, Label: "Email", Required: true},
			{ID: "level", Type: form.FieldSelect, Label: "Level", Options: []string{"beginner", "advanced"}},
			{ID: "agree", Type: form.FieldCheckbox, Label: "I agree", Required: true},
		},
	}
}
