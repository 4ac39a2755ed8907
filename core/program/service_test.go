package program_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/program"
	inmemdb "github.com/Mufti-IBAK/mubeen-website-sub001/storage/database/inmem"
	testutil "github.com/Mufti-IBAK/mubeen-website-sub001/tests"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	return validate
}

func TestNewProgram_Validate(t *testing.T) {
	db := inmemdb.Open()
	repo := inmemdb.NewProgramRepository(db)
	svc := program.NewService(repo, core.NopLogger{})
	testutil.CreateProgram(t, repo, "quran-101", "Quran Basics", true)
	validate := newValidator()
	ctx := context.Background()

	tests := []struct {
		name      string
		np        program.NewProgram
		wantField string
	}{
		{"valid", program.NewProgram{Slug: " Arabic-1 ", Title: "Arabic", Category: program.CategoryCourse}, ""},
		{"slug taken", program.NewProgram{Slug: "quran-101", Title: "Quran", Category: program.CategoryCourse}, "slug"},
		{"bad slug", program.NewProgram{Slug: "no spaces", Title: "Quran", Category: program.CategoryCourse}, "slug"},
		{"blank title", program.NewProgram{Slug: "fiqh", Title: "   ", Category: program.CategoryCourse}, "title"},
		{"bad category", program.NewProgram{Slug: "fiqh", Title: "Fiqh", Category: "webinar"}, "category"},
		{"negative price", program.NewProgram{Slug: "fiqh", Title: "Fiqh", Category: program.CategorySkill, Price: -1}, "price"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			np := tc.np
			err := np.Validate(ctx, validate, svc)
			if tc.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, "arabic-1", np.Slug)
				assert.Equal(t, program.DefaultCurrency, np.Currency)
				return
			}
			require.Error(t, err)
			switch e := err.(type) {
			case validator.ValidationErrors:
				assert.Equal(t, tc.wantField, e[0].Field())
			case *core.ValidationError:
				assert.Contains(t, e.FieldMap(), tc.wantField)
			default:
				t.Fatalf("unexpected error %T: %v", err, err)
			}
		})
	}
}

func TestService_CRUD(t *testing.T) {
	db := inmemdb.Open()
	svc := program.NewService(inmemdb.NewProgramRepository(db), core.NopLogger{})
	formRepo := inmemdb.NewFormRepository(db)
	ctx := context.Background()

	prg, err := svc.Create(ctx, program.NewProgram{
		Slug:        "quran-101",
		Title:       "Quran Basics",
		Description: `<p onclick="x()">Learn <script>alert(1)</script>to read</p>`,
		Category:    program.CategoryCourse,
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>Learn to read</p>", prg.Description)
	assert.Equal(t, program.DefaultCurrency, prg.Currency)

	got, err := svc.GetBySlug(ctx, "QURAN-101")
	require.NoError(t, err)
	assert.Equal(t, prg.ID, got.ID)

	_, err = svc.GetByID(ctx, "nope")
	assert.Equal(t, program.ErrNotFound, err)

	title, published := "Quran for Beginners", true
	prg, err = svc.Update(ctx, prg, program.UpdateProgram{Title: &title, IsPublished: &published})
	require.NoError(t, err)
	assert.Equal(t, title, prg.Title)
	assert.True(t, prg.IsPublished)

	prgs, err := svc.Query(ctx, &program.QueryFilter{Published: &published}, nil)
	require.NoError(t, err)
	assert.Len(t, prgs, 1)

	key := form.Key{OwnerID: prg.ID, FormType: form.DefaultFormType}
	testutil.PutSchema(t, formRepo, key, testutil.RegistrationSchema())
	require.NoError(t, svc.Delete(ctx, prg.ID))
	_, err = svc.GetByID(ctx, prg.ID)
	assert.Equal(t, program.ErrNotFound, err)
	_, err = formRepo.GetSchema(ctx, key)
	assert.Equal(t, form.ErrNotFound, err, "forms are deleted with their program")
}
