package registration

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
)

// Statuses
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
	StatusRefunded  = "refunded"
)

var Statuses = []string{StatusPending, StatusPaid, StatusCancelled, StatusRefunded}

// Payment gateway events
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
	EventPaymentRefunded  = "payment.refunded"
)

// Registration is a stored form submission for a program.
type Registration struct {
	ID         string      `json:"id"`
	ProgramID  string      `json:"program_id"`
	FormType   string      `json:"form_type"`
	Values     form.Values `json:"values"`
	Email      string      `json:"email"`
	Status     string      `json:"status"`
	PaymentRef string      `json:"payment_ref"`
	CreatedAt  time.Time   `json:"created_at"` // UTC
	UpdatedAt  time.Time   `json:"updated_at"` // UTC
}

// PaymentEvent is what the payment gateway reports about a registration.
// Capturing and refunding money stays with the gateway; only the outcome is recorded.
type PaymentEvent struct {
	Type           string `json:"type" validate:"required,oneof=payment.succeeded payment.failed payment.refunded"`
	RegistrationID string `json:"registration_id" validate:"required,uuid"`
	Reference      string `json:"reference" validate:"required,max=200"`
}

func (ev *PaymentEvent) Validate(validate *validator.Validate) error {
	ev.Type = core.CleanString(ev.Type, true /* lower */)
	ev.RegistrationID = core.CleanString(ev.RegistrationID, true /* lower */)
	ev.Reference = core.CleanString(ev.Reference)
	return validate.Struct(ev)
}

type QueryFilter struct {
	ProgramID   string    `query:"program_id"`
	FormType    string    `query:"form_type"`
	Status      string    `query:"status"`
	Search      string    `query:"search"`
	CreatedFrom time.Time `query:"-"`
	CreatedTo   time.Time `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.ProgramID == "" && qf.FormType == "" && qf.Status == "" && qf.Search == "" &&
		qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search, true /* lower */)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.FormType = core.CleanString(qf.FormType, true /* lower */)
}

// Answer is one labelled value, as shown in notification emails.
type Answer struct {
	Label string
	Value string
}

type emailData struct {
	ProgramTitle   string
	RegistrationID string
	FormType       string
	Answers        []Answer
}
