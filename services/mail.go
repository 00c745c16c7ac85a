package services

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var mailTemplateFS embed.FS

// MailMessage is a queued mail. Data holds the JSON encoded template data so
// that messages survive a trip through Redis.
type MailMessage struct {
	To         []string        `json:"to"`
	Subject    string          `json:"subject"`
	Template   string          `json:"template"`
	Data       json.RawMessage `json:"data"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

func NewMailMessage(to []string, subject, templateName string, data any) (MailMessage, error) {
	if len(to) == 0 {
		return MailMessage{}, fmt.Errorf("at least one recipient is required")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return MailMessage{}, fmt.Errorf("failed to marshal mail data: %w", err)
	}
	return MailMessage{
		To:         to,
		Subject:    subject,
		Template:   templateName,
		Data:       raw,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

type mailTemplate struct {
	file    string
	newData func() any
}

var mailTemplates = map[string]mailTemplate{
	PublishedProjectTemplate: {
		file:    "templates/projects_published.html",
		newData: func() any { return &PublishedProjectMail{} },
	},
}

// MailRenderer turns a MailMessage into an HTML body.
type MailRenderer struct {
	templates map[string]*template.Template
}

func NewMailRenderer() (*MailRenderer, error) {
	r := &MailRenderer{templates: make(map[string]*template.Template, len(mailTemplates))}
	for name, mt := range mailTemplates {
		tmpl, err := template.ParseFS(mailTemplateFS, mt.file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse mail template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

func (r *MailRenderer) Render(msg MailMessage) (string, error) {
	mt, ok := mailTemplates[msg.Template]
	tmpl := r.templates[msg.Template]
	if !ok || tmpl == nil {
		return "", fmt.Errorf("unknown mail template %q", msg.Template)
	}

	data := mt.newData()
	if err := json.Unmarshal(msg.Data, data); err != nil {
		return "", fmt.Errorf("failed to decode data for mail template %s: %w", msg.Template, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render mail template %s: %w", msg.Template, err)
	}
	return buf.String(), nil
}
