package email

import (
	"bytes"
	"html/template"
)

// Template kinds.
const (
	KindWelcome        = "welcome"
	KindVerifyEmail    = "verify_email"
	KindPasswordReset  = "password_reset"
	KindPaymentSuccess = "payment_success"
	KindPaymentFailure = "payment_failure"
	KindRefund         = "refund"
)

// Data is the union of fields the templates reference.
type Data struct {
	AppName   string
	FirstName string
	Link      string
	Plan      string
	Amount    string
	PaymentID string
	Reason    string
	ExpiresIn string
}

const layout = `{{define "layout"}}<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<h2>{{.AppName}}</h2>
{{template "content" .}}
<p style="color: #999; font-size: 12px;">This is an automated message, please do not reply.</p>
</div>
</body>
</html>{{end}}`

var contents = map[string]struct {
	subject string
	body    string
}{
	KindWelcome: {"Welcome to {{.AppName}}", `
<p>Hi {{.FirstName}},</p>
<p>Thanks for enrolling on the <strong>{{.Plan}}</strong> plan. Complete your payment to unlock the student portal.</p>
{{if .Link}}<p>Confirm your email address: <a href="{{.Link}}">{{.Link}}</a></p>{{end}}`},
	KindVerifyEmail: {"Confirm your email address", `
<p>Hi {{.FirstName}},</p>
<p>Confirm your email address: <a href="{{.Link}}">{{.Link}}</a></p>
<p>The link expires in {{.ExpiresIn}}.</p>`},
	KindPasswordReset: {"Reset your password", `
<p>Hi {{.FirstName}},</p>
<p>We received a request to reset your password. Use the link below to choose a new one.</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>The link expires in {{.ExpiresIn}}. If you did not ask for this you can ignore this email.</p>`},
	KindPaymentSuccess: {"Payment received", `
<p>Hi {{.FirstName}},</p>
<p>Your payment of {{.Amount}} for the <strong>{{.Plan}}</strong> plan was successful.</p>
<p>Reference: {{.PaymentID}}</p>`},
	KindPaymentFailure: {"Payment failed", `
<p>Hi {{.FirstName}},</p>
<p>Your payment of {{.Amount}} could not be completed{{if .Reason}}: {{.Reason}}{{end}}.</p>
<p>Reference: {{.PaymentID}}. You can try again from your dashboard.</p>`},
	KindRefund: {"Refund processed", `
<p>Hi {{.FirstName}},</p>
<p>A refund of {{.Amount}} has been issued for payment {{.PaymentID}}.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}`},
}

// Templates renders the built-in messages.
type Templates struct {
	subjects map[string]*template.Template
	bodies   map[string]*template.Template
}

func NewTemplates() (*Templates, error) {
	t := &Templates{
		subjects: make(map[string]*template.Template, len(contents)),
		bodies:   make(map[string]*template.Template, len(contents)),
	}
	for kind, c := range contents {
		subj, err := template.New(kind + "_subject").Parse(c.subject)
		if err != nil {
			return nil, Error.New("parse %s subject: %v", kind, err)
		}
		body, err := template.New(kind).Parse(layout)
		if err == nil {
			_, err = body.New("content").Parse(c.body)
		}
		if err != nil {
			return nil, Error.New("parse %s body: %v", kind, err)
		}
		t.subjects[kind] = subj
		t.bodies[kind] = body
	}
	return t, nil
}

// Render builds the message of the given kind for one recipient.
func (t *Templates) Render(kind, to string, data Data) (*Message, error) {
	body, ok := t.bodies[kind]
	if !ok {
		return nil, Error.New("unknown template %q", kind)
	}
	var subj, html bytes.Buffer
	if err := t.subjects[kind].Execute(&subj, data); err != nil {
		return nil, Error.Wrap(err)
	}
	if err := body.ExecuteTemplate(&html, "layout", data); err != nil {
		return nil, Error.Wrap(err)
	}
	return &Message{To: []string{to}, Subject: subj.String(), Body: html.String()}, nil
}
