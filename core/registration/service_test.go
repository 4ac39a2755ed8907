package registration_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/program"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/registration"
	appfs "github.com/Mufti-IBAK/mubeen-website-sub001/fs"
	emailsvc "github.com/Mufti-IBAK/mubeen-website-sub001/services/email"
	inmemdb "github.com/Mufti-IBAK/mubeen-website-sub001/storage/database/inmem"
	testutil "github.com/Mufti-IBAK/mubeen-website-sub001/tests"
)

type fixture struct {
	svc     registration.Service
	mailSvc *emailsvc.ConsoleServiceMock
	prg     program.Program
	key     form.Key
}

func newFixture(t *testing.T, published bool) fixture {
	conf := &core.Config{AppName: "Mubeen", AdminNotifyEmail: "admin@mubeen.test", TestMode: true}
	core.ParseEmailTemplates(appfs.FS, conf, core.NopLogger{})

	db := inmemdb.Open()
	prgRepo := inmemdb.NewProgramRepository(db)
	formRepo := inmemdb.NewFormRepository(db)
	prg := testutil.CreateProgram(t, prgRepo, "quran-101", "Quran Basics", published)
	key := form.Key{OwnerID: prg.ID, FormType: form.DefaultFormType}
	testutil.PutSchema(t, formRepo, key, testutil.RegistrationSchema())

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	svc := registration.NewService(
		inmemdb.NewRegistrationRepository(db),
		program.NewService(prgRepo, core.NopLogger{}),
		form.NewService(formRepo, core.NopLogger{}),
		mailSvc,
		core.NopLogger{},
		conf,
	)
	return fixture{svc: svc, mailSvc: mailSvc, prg: prg, key: key}
}

func TestService_Submit(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	record := form.Values{"fullName": "Amina Bello", "email": " Amina@Example.com ", "level": "beginner", "agree": true}
	conf, err := f.svc.Submit(ctx, f.key, record)
	require.NoError(t, err)
	assert.NotEmpty(t, conf.Reference)
	assert.False(t, conf.SubmittedAt.IsZero())

	reg, err := f.svc.GetByID(ctx, conf.Reference)
	require.NoError(t, err)
	assert.Equal(t, f.prg.ID, reg.ProgramID)
	assert.Equal(t, form.DefaultFormType, reg.FormType)
	assert.Equal(t, "amina@example.com", reg.Email)
	assert.Equal(t, registration.StatusPending, reg.Status)
	assert.Equal(t, record, reg.Values)

	sent := f.mailSvc.SentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "amina@example.com", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "Full name: Amina Bello")
	assert.Contains(t, sent[0].TextContent, "I agree: Yes")
	assert.Equal(t, "admin@mubeen.test", sent[1].To[0].Address)
	assert.Equal(t, "New registration for Quran Basics", sent[1].Subject)
	require.NotNil(t, sent[1].ReplyTo)
	assert.Equal(t, "amina@example.com", sent[1].ReplyTo.Address)
	assert.Equal(t, map[string]string{"registration_id": reg.ID, "program_id": f.prg.ID}, sent[1].Tags)
}

func TestService_Submit_unpublished(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.Submit(context.Background(), f.key, form.Values{"fullName": "Amina"})
	assert.Equal(t, registration.ErrProgramClosed, errors.Cause(err))
	assert.Empty(t, f.mailSvc.SentMessages())
}

func TestService_ApplyPaymentEvent(t *testing.T) {
	type event struct{ typ, ref string }
	tests := []struct {
		name       string
		events     []event
		wantStatus string
		wantRef    string
		wantErr    error
	}{
		{
			name:       "succeeded",
			events:     []event{{registration.EventPaymentSucceeded, "pay_1"}},
			wantStatus: registration.StatusPaid, wantRef: "pay_1",
		},
		{
			name:       "redelivered",
			events:     []event{{registration.EventPaymentSucceeded, "pay_1"}, {registration.EventPaymentSucceeded, "pay_1"}},
			wantStatus: registration.StatusPaid, wantRef: "pay_1",
		},
		{
			name:    "second capture under another reference",
			events:  []event{{registration.EventPaymentSucceeded, "pay_1"}, {registration.EventPaymentSucceeded, "pay_2"}},
			wantErr: registration.ErrInvalidTransition,
		},
		{
			name:       "failed",
			events:     []event{{registration.EventPaymentFailed, "pay_1"}},
			wantStatus: registration.StatusCancelled, wantRef: "pay_1",
		},
		{
			name:    "failed again under another reference",
			events:  []event{{registration.EventPaymentFailed, "pay_1"}, {registration.EventPaymentFailed, "pay_2"}},
			wantErr: registration.ErrInvalidTransition,
		},
		{
			name:       "refunded",
			events:     []event{{registration.EventPaymentSucceeded, "pay_1"}, {registration.EventPaymentRefunded, "re_1"}},
			wantStatus: registration.StatusRefunded, wantRef: "re_1",
		},
		{
			name: "refunded twice under another reference",
			events: []event{
				{registration.EventPaymentSucceeded, "pay_1"},
				{registration.EventPaymentRefunded, "re_1"},
				{registration.EventPaymentRefunded, "re_2"},
			},
			wantErr: registration.ErrInvalidTransition,
		},
		{
			name:    "refund before payment",
			events:  []event{{registration.EventPaymentRefunded, "re_1"}},
			wantErr: registration.ErrInvalidTransition,
		},
		{
			name:    "paid after cancel",
			events:  []event{{registration.EventPaymentFailed, "pay_1"}, {registration.EventPaymentSucceeded, "pay_1"}},
			wantErr: registration.ErrInvalidTransition,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, true)
			ctx := context.Background()
			conf, err := f.svc.Submit(ctx, f.key, form.Values{"fullName": "Amina", "email": "amina@example.com", "agree": true})
			require.NoError(t, err)

			var reg, before registration.Registration
			for i, ev := range tc.events {
				if i == len(tc.events)-1 {
					before, err = f.svc.GetByID(ctx, conf.Reference)
					require.NoError(t, err)
				}
				reg, err = f.svc.ApplyPaymentEvent(ctx, registration.PaymentEvent{
					Type:           ev.typ,
					RegistrationID: conf.Reference,
					Reference:      ev.ref,
				})
			}
			if tc.wantErr != nil {
				assert.Equal(t, tc.wantErr, errors.Cause(err))

				// the stored payment is left alone
				stored, gErr := f.svc.GetByID(ctx, conf.Reference)
				require.NoError(t, gErr)
				assert.Equal(t, before, stored)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, reg.Status)
			assert.Equal(t, tc.wantRef, reg.PaymentRef)
		})
	}
}

func TestService_ApplyPaymentEvent_notFound(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.ApplyPaymentEvent(context.Background(), registration.PaymentEvent{
		Type:           registration.EventPaymentSucceeded,
		RegistrationID: "not-a-uuid",
		Reference:      "pay_1",
	})
	assert.Equal(t, registration.ErrNotFound, err)
}

func TestService_Query(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := f.svc.Submit(ctx, f.key, form.Values{"email": email})
		require.NoError(t, err)
	}

	regs, err := f.svc.Query(ctx, &registration.QueryFilter{Search: "b@"}, nil)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "b@example.com", regs[0].Email)

	regs, err = f.svc.Query(ctx, nil, []core.DBOrdering{{Field: "email", Ascending: true}})
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.Equal(t, "a@example.com", regs[0].Email)
}

type warnLogger struct {
	core.NopLogger
	warnings []string
}

func (l *warnLogger) Warn(msg string, _ ...interface{}) { l.warnings = append(l.warnings, msg) }

func TestService_Submit_schemaUnavailable(t *testing.T) {
	conf := &core.Config{AppName: "Mubeen", AdminNotifyEmail: "admin@mubeen.test", TestMode: true}
	core.ParseEmailTemplates(appfs.FS, conf, core.NopLogger{})

	db := inmemdb.Open()
	prgRepo := inmemdb.NewProgramRepository(db)
	prg := testutil.CreateProgram(t, prgRepo, "quran-101", "Quran Basics", true)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	logger := new(warnLogger)
	svc := registration.NewService(
		inmemdb.NewRegistrationRepository(db),
		program.NewService(prgRepo, core.NopLogger{}),
		form.NewService(inmemdb.NewFormRepository(db), core.NopLogger{}),
		mailSvc,
		logger,
		conf,
	)

	key := form.Key{OwnerID: prg.ID, FormType: "scholarship"}
	_, err := svc.Submit(context.Background(), key, form.Values{"email": "amina@example.com"})
	require.NoError(t, err)

	assert.Equal(t, []string{"loading form schema for a submission"}, logger.warnings)
	sent := mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "admin@mubeen.test", sent[0].To[0].Address)
}
