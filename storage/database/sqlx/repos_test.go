package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/profile"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/program"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/registration"
	sqlxrepos "github.com/Mufti-IBAK/mubeen-website-sub001/storage/database/sqlx"
	testutil "github.com/Mufti-IBAK/mubeen-website-sub001/tests"
)

func TestProgramRepository(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	repo := sqlxrepos.NewProgramRepository(db)

	past := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	quran := testutil.CreateProgram(t, repo, "quran-101", "Quran Basics", true, past)
	arabic := testutil.CreateProgram(t, repo, "arabic", "Arabic Grammar", false)

	t.Run("slug uniqueness", func(t *testing.T) {
		assert.Equal(t, program.ErrSlugExists, repo.CheckSlugUniqueness(ctx, "quran-101"))
		assert.NoError(t, repo.CheckSlugUniqueness(ctx, "quran-101", quran))
		assert.NoError(t, repo.CheckSlugUniqueness(ctx, "fiqh"))
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetProgram(ctx, program.GetFilter{Slug: "arabic"})
		require.NoError(t, err)
		assert.Equal(t, arabic.ID, got.ID)

		_, err = repo.GetProgram(ctx, program.GetFilter{ID: uuid.New().String()})
		assert.Equal(t, program.ErrNotFound, err)
	})

	t.Run("query", func(t *testing.T) {
		published := true
		prgs, err := repo.QueryPrograms(ctx, &program.QueryFilter{Published: &published}, nil)
		require.NoError(t, err)
		require.Len(t, prgs, 1)
		assert.Equal(t, quran.ID, prgs[0].ID)

		prgs, err = repo.QueryPrograms(ctx, &program.QueryFilter{Search: "GRAMMAR"}, nil)
		require.NoError(t, err)
		require.Len(t, prgs, 1)
		assert.Equal(t, arabic.ID, prgs[0].ID)

		prgs, err = repo.QueryPrograms(ctx, nil, []core.DBOrdering{{Field: "created_at", Ascending: false}})
		require.NoError(t, err)
		require.Len(t, prgs, 2)
		assert.Equal(t, arabic.ID, prgs[0].ID)
	})

	t.Run("update", func(t *testing.T) {
		quran.Description = "<p>Learn to read</p>"
		quran.Price = 5000
		got, err := repo.UpdateProgram(ctx, quran)
		require.NoError(t, err)
		assert.Equal(t, "<p>Learn to read</p>", got.Description)
		assert.Equal(t, int64(5000), got.Price)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteProgramsByID(ctx, arabic.ID))
		_, err := repo.GetProgram(ctx, program.GetFilter{ID: arabic.ID})
		assert.Equal(t, program.ErrNotFound, err)
	})
}

func TestFormRepository(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	prg := testutil.CreateProgram(t, sqlxrepos.NewProgramRepository(db), "quran-101", "Quran Basics", true)
	repo := sqlxrepos.NewFormRepository(db)
	key := form.Key{OwnerID: prg.ID, FormType: form.DefaultFormType}

	_, err := repo.GetSchema(ctx, key)
	assert.Equal(t, form.ErrNotFound, err)

	want := testutil.RegistrationSchema()
	testutil.PutSchema(t, repo, key, want)
	got, err := repo.GetSchema(ctx, key)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetSchema() mismatch (-want +got):\n%s", diff)
	}

	// replaced as a whole
	want.Fields = want.Fields[:1]
	testutil.PutSchema(t, repo, key, want)
	testutil.PutSchema(t, repo, form.Key{OwnerID: prg.ID, FormType: "waitlist"}, form.Schema{Title: "Waitlist"})

	docs, err := repo.ListSchemas(ctx, prg.ID)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, form.DefaultFormType, docs[0].FormType)
	assert.Len(t, docs[0].Schema.Fields, 1)
	assert.Equal(t, "waitlist", docs[1].FormType)

	require.NoError(t, repo.DeleteSchema(ctx, key))
	assert.Equal(t, form.ErrNotFound, repo.DeleteSchema(ctx, key))
}

func TestRegistrationRepository(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	prg := testutil.CreateProgram(t, sqlxrepos.NewProgramRepository(db), "quran-101", "Quran Basics", true)
	repo := sqlxrepos.NewRegistrationRepository(db)

	now := time.Now().UTC().Truncate(time.Microsecond)
	reg := registration.Registration{
		ID:        uuid.New().String(),
		ProgramID: prg.ID,
		FormType:  form.DefaultFormType,
		Values:    form.Values{"fullName": "Amina", "email": "amina@example.com", "agree": true},
		Email:     "amina@example.com",
		Status:    registration.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := repo.CreateRegistration(ctx, reg)
	require.NoError(t, err)

	got, err := repo.GetRegistration(ctx, reg.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(reg, got); diff != "" {
		t.Errorf("GetRegistration() mismatch (-want +got):\n%s", diff)
	}

	regs, err := repo.QueryRegistrations(ctx, &registration.QueryFilter{ProgramID: prg.ID, Search: "AMINA"}, nil)
	require.NoError(t, err)
	assert.Len(t, regs, 1)

	regs, err = repo.QueryRegistrations(ctx, &registration.QueryFilter{Status: registration.StatusPaid}, nil)
	require.NoError(t, err)
	assert.Empty(t, regs)

	reg.Status = registration.StatusPaid
	reg.PaymentRef = "pay_123"
	got, err = repo.UpdateRegistration(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, registration.StatusPaid, got.Status)
	assert.Equal(t, "pay_123", got.PaymentRef)

	_, err = repo.GetRegistration(ctx, uuid.New().String())
	assert.Equal(t, registration.ErrNotFound, err)
}

func TestProfileRepository(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	repo := sqlxrepos.NewProfileRepository(db)

	owner := testutil.CreateProfile(t, repo, "auth0|1", "Owner", "owner@example.com", []string{profile.RoleAdminOwner})
	testutil.CreateProfile(t, repo, "auth0|2", "Student", "student@example.com", []string{profile.RoleStudent})

	admins, err := repo.QueryProfiles(ctx, &profile.QueryFilter{Roles: []string{profile.RoleAdmin}})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, owner.ID, admins[0].ID)

	found, err := repo.QueryProfiles(ctx, &profile.QueryFilter{Search: "student@"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	owner.Roles = []string{profile.RoleAdminOwner, profile.RoleInstructor}
	got, err := repo.UpdateProfile(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, owner.Roles, got.Roles)

	_, err = repo.GetProfile(ctx, "nobody")
	assert.Equal(t, profile.ErrNotFound, err)
}
