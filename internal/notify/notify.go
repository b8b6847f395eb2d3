// Package notify delivers email notifications for newly stored
// enforcement records.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"text/template"

	"github.com/youngcitybandit/nj-health-monitor/internal/common"
	"github.com/youngcitybandit/nj-health-monitor/internal/entity"
)

// letterTemplate is the facility letter. The salutation uses the
// administrator's first name, which reconciliation guarantees is never
// empty.
var letterTemplate = template.Must(template.New("letter").Parse(
	`Dear {{.AdministratorFirst}},

This is an automated notification regarding a newly published enforcement
action for {{.FacilityName}}.

Action type: {{.EnforcementActionType}}
Enforcement date: {{.EnforcementDate}}
{{- if .PenaltyAmount}}
Penalty amount: {{.PenaltyAmount}}
{{- end}}
{{- if .ViolationSummary}}
Violation summary: {{.ViolationSummary}}
{{- end}}
Severity: {{.SeverityLevel}}

The full notice is available at:
{{.PDFURL}}

NJ Health Facility Monitoring
`))

// Subject renders the single-record subject line.
func Subject(rec entity.Record) string {
	return fmt.Sprintf("NJ Health Facility Enforcement Action - %s", rec.FacilityName)
}

// RenderLetter produces the letter body for a record.
func RenderLetter(rec entity.Record) (string, error) {
	var buf bytes.Buffer
	if err := letterTemplate.Execute(&buf, rec); err != nil {
		return "", common.NewAppError("NOTIFY_RENDER", "rendering facility letter", err)
	}
	return buf.String(), nil
}

// sendFunc matches smtp.SendMail; injectable for tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier sends one letter per record through a plain SMTP relay.
type SMTPNotifier struct {
	cfg    common.NotifyConfig
	logger *slog.Logger
	send   sendFunc
}

func NewSMTPNotifier(cfg common.NotifyConfig, logger *slog.Logger) *SMTPNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPNotifier{cfg: cfg, logger: logger, send: smtp.SendMail}
}

// SetSender replaces the SMTP send function (tests).
func (n *SMTPNotifier) SetSender(send sendFunc) { n.send = send }

// NotifyNewAction emails the configured recipient about a record.
func (n *SMTPNotifier) NotifyNewAction(ctx context.Context, rec entity.Record) error {
	if n.cfg.To == "" {
		return common.NewAppError("NOTIFY_SEND", "no recipient configured", common.ErrInvalidInput)
	}

	body, err := RenderLetter(rec)
	if err != nil {
		return err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", n.cfg.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", Subject(rec))
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := n.send(n.cfg.SMTPAddr, nil, n.cfg.From, []string{n.cfg.To}, msg.Bytes()); err != nil {
		return common.NewAppError("NOTIFY_SEND", "sending notification email", err)
	}
	n.logger.Info("notification sent", "id", rec.ID, "to", n.cfg.To)
	return nil
}

// LogNotifier is the default when email is disabled: it only logs.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyNewAction(ctx context.Context, rec entity.Record) error {
	n.logger.Info("new enforcement action",
		"id", rec.ID,
		"facility", rec.FacilityName,
		"action", rec.EnforcementActionType,
		"severity", rec.SeverityLevel,
		"priority", rec.PriorityScore,
	)
	return nil
}
