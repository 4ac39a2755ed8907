package registration

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/program"
)

var (
	// errors
	ErrNotFound          = errors.New("registration not found")
	ErrInvalidTransition = errors.New("payment event does not apply to the registration's status")
	ErrProgramClosed     = errors.New("program is not open for registration")
)

// Orderable fields of QueryRegistrations.
var OrderingFields = []string{"created_at", "updated_at", "status", "email"}

type (
	Repository interface {
		CreateRegistration(ctx context.Context, reg Registration) (Registration, error)
		GetRegistration(ctx context.Context, id string) (Registration, error)
		QueryRegistrations(ctx context.Context, filter *QueryFilter, orderings []core.DBOrdering) ([]Registration, error)
		UpdateRegistration(ctx context.Context, reg Registration) (Registration, error)
	}

	Service interface {
		form.SubmissionSink

		GetByID(ctx context.Context, id string) (Registration, error)
		Query(ctx context.Context, filter *QueryFilter, orderings []core.DBOrdering) ([]Registration, error)
		// ApplyPaymentEvent records the outcome the payment gateway reported.
		ApplyPaymentEvent(ctx context.Context, ev PaymentEvent) (Registration, error)
	}

	service struct {
		repo       Repository
		programs   program.Service
		forms      form.Service
		mailSvc    core.EmailService
		logger     core.Logger
		adminEmail string
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	programs program.Service,
	forms form.Service,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) Service {
	return &service{
		repo:       repo,
		programs:   programs,
		forms:      forms,
		mailSvc:    mailSvc,
		logger:     logger,
		adminEmail: conf.AdminNotifyEmail,
	}
}

// Submit stores a validated record and sends the notification emails.
func (svc *service) Submit(ctx context.Context, key form.Key, record form.Values) (form.Confirmation, error) {
	prg, err := svc.programs.GetByID(ctx, key.OwnerID)
	if err != nil {
		return form.Confirmation{}, errors.Wrap(err, "loading program")
	}
	if !prg.IsPublished {
		return form.Confirmation{}, ErrProgramClosed
	}

	// labels and the contact email come from the schema the record was validated against
	schema, err := svc.forms.Get(ctx, key)
	if err != nil {
		// the record is kept; without labels the applicant gets no confirmation email
		svc.logger.Warn("loading form schema for a submission", map[string]interface{}{
			"form":  key.String(),
			"error": err.Error(),
		})
		schema = form.Schema{}
	}

	now := time.Now().UTC()
	reg := Registration{
		ID:        uuid.New().String(),
		ProgramID: prg.ID,
		FormType:  key.FormType,
		Values:    record,
		Email:     contactEmail(schema, record),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if reg, err = svc.repo.CreateRegistration(ctx, reg); err != nil {
		return form.Confirmation{}, errors.Wrap(err, "saving registration")
	}

	svc.notify(prg, reg, answers(schema, record))
	return form.Confirmation{Reference: reg.ID, SubmittedAt: reg.CreatedAt}, nil
}

func (svc *service) notify(prg program.Program, reg Registration, ans []Answer) {
	data := emailData{
		ProgramTitle:   prg.Title,
		RegistrationID: reg.ID,
		FormType:       reg.FormType,
		Answers:        ans,
	}

	tags := map[string]string{"registration_id": reg.ID, "program_id": prg.ID}

	messages := make([]*core.EmailMessage, 0, 2)
	if reg.Email != "" {
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{{Address: reg.Email}},
			Subject:      "Registration received: " + prg.Title,
			TemplateName: "registration_received",
			TemplateData: data,
			Tags:         tags,
		})
	}
	if svc.adminEmail != "" {
		msg := &core.EmailMessage{
			To:           []mail.Address{{Address: svc.adminEmail}},
			Subject:      fmt.Sprintf("New %s for %s", strings.ReplaceAll(reg.FormType, "_", " "), prg.Title),
			TemplateName: "registration_admin",
			TemplateData: data,
			Tags:         tags,
		}
		if reg.Email != "" {
			msg.ReplyTo = &mail.Address{Address: reg.Email}
		}
		messages = append(messages, msg)
	}
	if len(messages) > 0 {
		svc.mailSvc.SendMessages(messages...)
	}
}

func (svc *service) GetByID(ctx context.Context, id string) (Registration, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Registration{}, ErrNotFound
	}
	return svc.repo.GetRegistration(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, orderings []core.DBOrdering) ([]Registration, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	return svc.repo.QueryRegistrations(ctx, filter, orderings)
}

func (svc *service) ApplyPaymentEvent(ctx context.Context, ev PaymentEvent) (Registration, error) {
	reg, err := svc.GetByID(ctx, ev.RegistrationID)
	if err != nil {
		return Registration{}, err
	}

	next, err := nextStatus(reg.Status, ev.Type)
	if err != nil {
		return Registration{}, err
	}
	if next == reg.Status {
		if reg.PaymentRef == ev.Reference {
			return reg, nil // gateways redeliver events
		}
		// a second capture or refund under another reference
		return Registration{}, ErrInvalidTransition
	}

	reg.Status = next
	reg.PaymentRef = ev.Reference
	reg.UpdatedAt = time.Now().UTC()
	svc.logger.Info("payment event applied", map[string]interface{}{
		"registration_id": reg.ID,
		"event":           ev.Type,
		"status":          next,
	})
	if reg, err = svc.repo.UpdateRegistration(ctx, reg); err != nil {
		return Registration{}, errors.Wrap(err, "saving payment status")
	}
	return reg, nil
}

func nextStatus(current, event string) (string, error) {
	switch event {
	case EventPaymentSucceeded:
		if current == StatusPending || current == StatusPaid {
			return StatusPaid, nil
		}
	case EventPaymentFailed:
		if current == StatusPending || current == StatusCancelled {
			return StatusCancelled, nil
		}
	case EventPaymentRefunded:
		if current == StatusPaid || current == StatusRefunded {
			return StatusRefunded, nil
		}
	}
	return "", ErrInvalidTransition
}

// contactEmail returns the first non-empty email-type value of record.
func contactEmail(s form.Schema, record form.Values) string {
	for _, f := range s.Fields {
		if f.Type != form.FieldEmail {
			continue
		}
		if email := core.CleanString(record.String(f.ID), true /* lower */); email != "" {
			return email
		}
	}
	return ""
}

// answers lists the record in schema order; fields missing from the schema follow by id.
func answers(s form.Schema, record form.Values) []Answer {
	ans := make([]Answer, 0, len(record))
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		seen[f.ID] = true
		label := f.Label
		if label == "" {
			label = f.ID
		}
		ans = append(ans, Answer{Label: label, Value: displayValue(record, f.ID)})
	}
	rest := make([]string, 0)
	for id := range record {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		ans = append(ans, Answer{Label: id, Value: displayValue(record, id)})
	}
	return ans
}

func displayValue(record form.Values, id string) string {
	if b, ok := record[id].(bool); ok {
		if b {
			return "Yes"
		}
		return "No"
	}
	return record.String(id)
}
