package core

import (
	"bytes"
	"encoding/base64"
	"fmt"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"
)

const emailTemplatesDir = "templates/email"

// emailTemplate holds both renditions of one email; either may be missing.
type emailTemplate struct {
	text *texttmpl.Template
	html *htmltmpl.Template
}

type executor interface {
	Execute(w io.Writer, data interface{}) error
}

var emailTemplates = struct {
	sync.RWMutex
	set             map[string]*emailTemplate // by name, without ext
	appName         string
	frontendBaseURL string
}{}

type (
	Attachment struct {
		Content     *bytes.Buffer // base64
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		ReplyTo     *mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment
		// Tags are delivery metadata (registration id, program id) the provider reports back with events.
		Tags map[string]string

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func execute(tmpl executor, data ContextData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render fills TextContent and HTMLContent. BodyStr wins over a text template.
func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}

	emailTemplates.RLock()
	defer emailTemplates.RUnlock()

	if emailTemplates.set == nil {
		return fmt.Errorf("rendering %q: email templates not parsed", m.TemplateName)
	}
	tmpl, ok := emailTemplates.set[m.TemplateName]
	if !ok {
		return fmt.Errorf("rendering %q: no such email template", m.TemplateName)
	}

	data := ContextData{
		AppName:         emailTemplates.appName,
		FrontendBaseURL: emailTemplates.frontendBaseURL,
		Data:            m.TemplateData,
	}
	var err error
	if tmpl.text != nil && m.BodyStr == "" {
		if m.TextContent, err = execute(tmpl.text, data); err != nil {
			return err
		}
	}
	if tmpl.html != nil {
		if m.HTMLContent, err = execute(tmpl.html, data); err != nil {
			return err
		}
	}
	return nil
}

func (m *EmailMessage) Attach(r io.Reader, filename string, ct ...string) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	at := Attachment{Filename: filename, Content: new(bytes.Buffer)}
	encoder := base64.NewEncoder(base64.StdEncoding, at.Content)
	if _, err := encoder.Write(content); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}

	if len(ct) > 0 {
		at.ContentType = ct[0]
	} else {
		at.ContentType = http.DetectContentType(content)
	}
	m.Attachments = append(m.Attachments, at)
	return nil
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

// ParseEmailTemplates loads every email template under templates/email of fsys.
// Files starting with "_" are layouts every template is parsed with.
func ParseEmailTemplates(fsys fs.FS, conf *Config, logger Logger) {
	set := make(map[string]*emailTemplate)

	entries, err := fs.ReadDir(fsys, emailTemplatesDir)
	if err != nil {
		logger.Error(fmt.Sprintf("reading email templates: %v", err), err)
	}
	for _, e := range entries {
		fname := e.Name()
		ext := path.Ext(fname)
		if e.IsDir() || strings.HasPrefix(fname, "_") || (ext != ".txt" && ext != ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		tmpl, ok := set[name]
		if !ok {
			tmpl = new(emailTemplate)
			set[name] = tmpl
		}

		files := []string{path.Join(emailTemplatesDir, "_base"+ext), path.Join(emailTemplatesDir, fname)}
		strict := conf.Debug || conf.TestMode
		if ext == ".txt" {
			t, err := texttmpl.ParseFS(fsys, files...)
			if err != nil {
				logger.Error(fmt.Sprintf("parsing email template %s: %v", fname, err), err)
				continue
			}
			if strict {
				t = t.Option("missingkey=error")
			}
			tmpl.text = t
		} else {
			t, err := htmltmpl.ParseFS(fsys, files...)
			if err != nil {
				logger.Error(fmt.Sprintf("parsing email template %s: %v", fname, err), err)
				continue
			}
			if strict {
				t = t.Option("missingkey=error")
			}
			tmpl.html = t
		}
	}

	emailTemplates.Lock()
	defer emailTemplates.Unlock()
	emailTemplates.set = set
	emailTemplates.appName = conf.AppName
	emailTemplates.frontendBaseURL = conf.FrontendBaseURL
}
