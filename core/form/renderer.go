package form

import (
	"bytes"
	"embed"
	"html/template"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

var (
	descriptionPolicy     *bluemonday.Policy
	descriptionPolicyOnce sync.Once
)

// descriptionSanitizer returns the policy applied to admin-authored descriptions.
func descriptionSanitizer() *bluemonday.Policy {
	descriptionPolicyOnce.Do(func() {
		descriptionPolicy = bluemonday.UGCPolicy()
	})
	return descriptionPolicy
}

// SanitizeHTML strips anything but basic formatting markup from s.
func SanitizeHTML(s string) string {
	return descriptionSanitizer().Sanitize(s)
}

const (
	DefaultSubmitLabel     = "Submit"
	DefaultUnavailableText = "This form is not available right now."
	defaultDOMIDPrefix     = "f-"
)

// Renderer turns a schema, its current values and errors into an HTML form.
// Rendering is a pure function of its inputs.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("form").ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, errors.Wrap(err, "parsing form templates")
	}
	return &Renderer{tmpl: tmpl}, nil
}

type renderConfig struct {
	action      string
	submitLabel string
	preview     bool
	idPrefix    string
	hidden      map[string]string
}

type RenderOption func(*renderConfig)

// WithAction sets the URL the form posts to.
func WithAction(action string) RenderOption {
	return func(c *renderConfig) { c.action = action }
}

func WithSubmitLabel(label string) RenderOption {
	return func(c *renderConfig) { c.submitLabel = label }
}

// WithPreview renders the form as the builder shows it: no action, submit disabled.
func WithPreview() RenderOption {
	return func(c *renderConfig) { c.preview = true }
}

// WithHiddenField adds a hidden input, e.g. the CSRF token of the public pages.
func WithHiddenField(name, value string) RenderOption {
	return func(c *renderConfig) {
		if c.hidden == nil {
			c.hidden = make(map[string]string)
		}
		c.hidden[name] = value
	}
}

// WithIDPrefix prefixes the DOM ids of the controls, for pages holding several forms.
func WithIDPrefix(prefix string) RenderOption {
	return func(c *renderConfig) { c.idPrefix = prefix }
}

type (
	formView struct {
		Title       string
		Description template.HTML
		Action      string
		SubmitLabel string
		Preview     bool
		HasErrors   bool
		Hidden      []hiddenView
		Fields      []fieldView
	}

	hiddenView struct {
		Name  string
		Value string
	}

	fieldView struct {
		ID          string
		Name        string
		DOMID       string
		Label       string
		Placeholder string
		Required    bool
		Control     string
		InputType   string
		Value       string
		Checked     bool
		Options     []optionView
		Error       string
	}

	optionView struct {
		Value    string
		DOMID    string
		Selected bool
	}
)

// Render writes the form for s. values and errs may be nil.
func (r *Renderer) Render(s Schema, values Values, errs ValidationResult, opts ...RenderOption) ([]byte, error) {
	cfg := renderConfig{submitLabel: DefaultSubmitLabel, idPrefix: defaultDOMIDPrefix}
	for _, opt := range opts {
		opt(&cfg)
	}

	view := formView{
		Title:       s.Title,
		Description: template.HTML(SanitizeHTML(s.Description)),
		Action:      cfg.action,
		SubmitLabel: cfg.submitLabel,
		Preview:     cfg.preview,
		HasErrors:   len(errs) > 0,
	}

	names := make([]string, 0, len(cfg.hidden))
	for name := range cfg.hidden {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		view.Hidden = append(view.Hidden, hiddenView{Name: name, Value: cfg.hidden[name]})
	}

	view.Fields = make([]fieldView, 0, len(s.Fields))
	for _, f := range s.Fields {
		view.Fields = append(view.Fields, newFieldView(f, values, errs, cfg.idPrefix))
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "form", view); err != nil {
		return nil, errors.Wrap(err, "rendering form")
	}
	return buf.Bytes(), nil
}

// RenderUnavailable writes the neutral block shown when no schema could be loaded.
func (r *Renderer) RenderUnavailable(message string) ([]byte, error) {
	if strings.TrimSpace(message) == "" {
		message = DefaultUnavailableText
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "unavailable", message); err != nil {
		return nil, errors.Wrap(err, "rendering unavailable form")
	}
	return buf.Bytes(), nil
}

func newFieldView(f Field, values Values, errs ValidationResult, prefix string) fieldView {
	fv := fieldView{
		ID:          f.ID,
		Name:        f.ID,
		DOMID:       prefix + f.ID,
		Label:       f.Label,
		Placeholder: f.Placeholder,
		Required:    f.Required,
		Control:     string(f.Type.Control()),
		InputType:   f.Type.InputType(),
		Error:       errs[f.ID],
	}
	if fv.Label == "" {
		fv.Label = f.ID
	}

	if f.Type == FieldCheckbox {
		fv.Checked = values.Bool(f.ID)
		return fv
	}

	fv.Value = values.String(f.ID)
	if f.Type.IsChoice() {
		fv.Options = make([]optionView, len(f.Options))
		for i, opt := range f.Options {
			fv.Options[i] = optionView{
				Value:    opt,
				DOMID:    fv.DOMID + "-" + strconv.Itoa(i),
				Selected: opt == fv.Value,
			}
		}
	}
	return fv
}
