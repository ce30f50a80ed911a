// Package notification defines the messages handed from domain services to the mail worker.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"

	"kadryhr/internal/core/id"
)

// Kinds of queued notifications.
const (
	KindLeaveDecision = "leave.decision"
	KindWelcome       = "user.welcome"
)

// Publisher queues a notification inside the caller's transaction.
type Publisher interface {
	Publish(ctx context.Context, orgID id.ID, kind string, payload any) error
}

// LeaveDecision is the payload of KindLeaveDecision.
type LeaveDecision struct {
	LeaveRequestID id.ID  `json:"leaveRequestId"`
	EmployeeName   string `json:"employeeName"`
	Email          string `json:"email"`
	Status         string `json:"status"`
	Category       string `json:"category"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
}

// Welcome is the payload of KindWelcome.
type Welcome struct {
	Email            string `json:"email"`
	DisplayName      string `json:"displayName"`
	OrganisationName string `json:"organisationName"`
}

// Email is a rendered message.
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

var decisionLabels = map[string]string{
	"approved": "zaakceptowany",
	"rejected": "odrzucony",
}

var (
	leaveDecisionHTML = template.Must(template.New("leave_decision").Parse(
		`<p>Cześć {{.EmployeeName}},</p>` +
			`<p>Twój wniosek urlopowy ({{.Category}}) na okres {{.StartDate}} – {{.EndDate}} został <strong>{{.Label}}</strong>.</p>`))

	welcomeHTML = template.Must(template.New("welcome").Parse(
		`<p>Cześć {{.DisplayName}},</p>` +
			`<p>założyliśmy Ci konto w organizacji <strong>{{.OrganisationName}}</strong> w KadryHR.</p>`))
)

type leaveDecisionView struct {
	LeaveDecision
	Label string
}

// Render turns a queued payload into an email.
func Render(kind string, payload []byte) (Email, error) {
	switch kind {
	case KindLeaveDecision:
		var p LeaveDecision
		if err := json.Unmarshal(payload, &p); err != nil {
			return Email{}, fmt.Errorf("decode %s: %w", kind, err)
		}
		label := decisionLabels[p.Status]
		if label == "" {
			label = p.Status
		}
		text := fmt.Sprintf("Cześć %s,\n\nTwój wniosek urlopowy (%s) na okres %s – %s został %s.\n",
			p.EmployeeName, p.Category, p.StartDate, p.EndDate, label)
		body, err := execute(leaveDecisionHTML, leaveDecisionView{LeaveDecision: p, Label: label})
		if err != nil {
			return Email{}, err
		}
		return Email{
			To:      p.Email,
			Subject: "Wniosek urlopowy " + label,
			Text:    text,
			HTML:    body,
		}, nil

	case KindWelcome:
		var p Welcome
		if err := json.Unmarshal(payload, &p); err != nil {
			return Email{}, fmt.Errorf("decode %s: %w", kind, err)
		}
		text := fmt.Sprintf("Cześć %s,\n\nzałożyliśmy Ci konto w organizacji %s w KadryHR.\n",
			p.DisplayName, p.OrganisationName)
		body, err := execute(welcomeHTML, p)
		if err != nil {
			return Email{}, err
		}
		return Email{
			To:      p.Email,
			Subject: "Witamy w KadryHR",
			Text:    text,
			HTML:    body,
		}, nil
	}
	return Email{}, fmt.Errorf("unknown notification kind %q", kind)
}

func execute(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
