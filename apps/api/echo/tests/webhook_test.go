package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/Mufti-IBAK/mubeen-website-sub001/apps/api/echo"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/registration"
	testutil "github.com/Mufti-IBAK/mubeen-website-sub001/tests"
)

const webhookPath = "/api/webhooks/payments"

func createRegistration(t *testing.T, app *testApp, programID, email string, createdAt time.Time) registration.Registration {
	t.Helper()

	reg, err := app.regRepo.CreateRegistration(context.Background(), registration.Registration{
		ID:        uuid.New().String(),
		ProgramID: programID,
		FormType:  form.DefaultFormType,
		Values:    form.Values{"email": email},
		Email:     email,
		Status:    registration.StatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	require.NoError(t, err)
	return reg
}

func postWebhook(app *testApp, body []byte, signature string) (*http.Response, []byte) {
	req, rec := newRequest(http.MethodPost, webhookPath, body)
	if signature != "" {
		req.Header.Set(echoapi.HeaderSignature, signature)
	}
	app.serve(req, rec)
	return rec.Result(), rec.Body.Bytes()
}

func Test_webhookApi_payment(t *testing.T) {
	app := setup(t)
	prg := testutil.CreateProgram(t, app.prgRepo, "quran-101", "Quran Basics", true)
	reg := createRegistration(t, app, prg.ID, "amina@example.com", time.Now().UTC())

	event := func(typ, id, ref string) []byte {
		return marchallObj(t, registration.PaymentEvent{Type: typ, RegistrationID: id, Reference: ref})
	}
	sign := func(body []byte) string {
		return echoapi.SignWebhookPayload(conf.Payments.WebhookSecret, time.Now(), body)
	}
	badSignature := marchallObj(t, httpErr{Error: "invalid signature"})

	t.Run("rejects bad signatures", func(t *testing.T) {
		body := event(registration.EventPaymentSucceeded, reg.ID, "pay_1")
		for name, sig := range map[string]string{
			"missing":    "",
			"wrong key":  echoapi.SignWebhookPayload("another", time.Now(), body),
			"stale":      echoapi.SignWebhookPayload(conf.Payments.WebhookSecret, time.Now().Add(-time.Hour), body),
			"other body": sign(event(registration.EventPaymentSucceeded, reg.ID, "pay_2")),
			"garbage":    "t=abc,v1=zz",
		} {
			res, data := postWebhook(app, body, sig)
			assert.Equal(t, http.StatusUnauthorized, res.StatusCode, name)
			ok, err := jsonBytesEqual(data, badSignature)
			require.NoError(t, err)
			assert.True(t, ok, name)
		}

		got, err := app.regRepo.GetRegistration(context.Background(), reg.ID)
		require.NoError(t, err)
		assert.Equal(t, registration.StatusPending, got.Status)
	})

	tests := []struct {
		name       string
		body       []byte
		wantCode   int
		wantStatus string
	}{
		{name: "refund before payment", body: event(registration.EventPaymentRefunded, reg.ID, "pay_1"), wantCode: http.StatusConflict},
		{name: "unknown registration", body: event(registration.EventPaymentSucceeded, uuid.New().String(), "pay_1"), wantCode: http.StatusNotFound},
		{name: "unknown event", body: event("payment.disputed", reg.ID, "pay_1"), wantCode: http.StatusBadRequest},
		{name: "malformed", body: []byte(`{"type":`), wantCode: http.StatusBadRequest},
		{name: "succeeded", body: event(registration.EventPaymentSucceeded, reg.ID, "pay_1"), wantCode: http.StatusOK, wantStatus: registration.StatusPaid},
		{name: "redelivered", body: event(" PAYMENT.SUCCEEDED ", reg.ID, "pay_1"), wantCode: http.StatusOK, wantStatus: registration.StatusPaid},
		{name: "second capture", body: event(registration.EventPaymentSucceeded, reg.ID, "pay_2"), wantCode: http.StatusConflict},
		{name: "failure after payment", body: event(registration.EventPaymentFailed, reg.ID, "pay_1"), wantCode: http.StatusConflict},
		{name: "refunded", body: event(registration.EventPaymentRefunded, reg.ID, "re_1"), wantCode: http.StatusOK, wantStatus: registration.StatusRefunded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, data := postWebhook(app, tt.body, sign(tt.body))
			require.Equal(t, tt.wantCode, res.StatusCode, string(data))
			if tt.wantStatus == "" {
				return
			}
			var got registration.Registration
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tt.wantStatus, got.Status)
		})
	}
}
