package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/youngcitybandit/nj-health-monitor/internal/common"
	"github.com/youngcitybandit/nj-health-monitor/internal/entity"
)

func sampleRecord() entity.Record {
	return entity.Record{
		ID:                    "oak_manor_20260115",
		FacilityName:          "Oak Manor Rehabilitation Center",
		EnforcementActionType: "Curtailment",
		EnforcementDate:       "2026-01-15",
		PenaltyAmount:         "$2500",
		ViolationSummary:      "staffing levels routinely below required minimums",
		SeverityLevel:         "MEDIUM",
		AdministratorFirst:    "Casey",
		PDFURL:                "https://www.nj.gov/health/pdf/oak.pdf",
	}
}

func TestSubject(t *testing.T) {
	got := Subject(sampleRecord())
	want := "NJ Health Facility Enforcement Action - Oak Manor Rehabilitation Center"
	if got != want {
		t.Errorf("subject = %q, want %q", got, want)
	}
}

func TestRenderLetter(t *testing.T) {
	body, err := RenderLetter(sampleRecord())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Dear Casey,",
		"Oak Manor Rehabilitation Center",
		"Action type: Curtailment",
		"Penalty amount: $2500",
		"https://www.nj.gov/health/pdf/oak.pdf",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("letter missing %q:\n%s", want, body)
		}
	}
}

func TestRenderLetter_OmitsEmptyOptionalLines(t *testing.T) {
	rec := sampleRecord()
	rec.PenaltyAmount = ""
	rec.ViolationSummary = ""
	body, err := RenderLetter(rec)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(body, "Penalty amount") || strings.Contains(body, "Violation summary") {
		t.Errorf("letter includes empty optional lines:\n%s", body)
	}
}

func TestSMTPNotifier_Send(t *testing.T) {
	cfg := common.NotifyConfig{
		Enabled:  true,
		SMTPAddr: "relay.example.gov:25",
		From:     "monitor@example.gov",
		To:       "alerts@example.gov",
	}
	n := NewSMTPNotifier(cfg, nil)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	n.SetSender(func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	})

	if err := n.NotifyNewAction(context.Background(), sampleRecord()); err != nil {
		t.Fatal(err)
	}
	if gotAddr != cfg.SMTPAddr || gotFrom != cfg.From {
		t.Errorf("sent via %q from %q", gotAddr, gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != cfg.To {
		t.Errorf("to = %v", gotTo)
	}
	msg := string(gotMsg)
	if !strings.Contains(msg, "Subject: NJ Health Facility Enforcement Action - Oak Manor Rehabilitation Center") {
		t.Errorf("message missing subject:\n%s", msg)
	}
	if !strings.Contains(msg, "Dear Casey,") {
		t.Errorf("message missing salutation:\n%s", msg)
	}
}

func TestSMTPNotifier_SendFailure(t *testing.T) {
	n := NewSMTPNotifier(common.NotifyConfig{To: "alerts@example.gov"}, nil)
	n.SetSender(func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return errors.New("connection refused")
	})
	if err := n.NotifyNewAction(context.Background(), sampleRecord()); err == nil {
		t.Error("want error when SMTP send fails")
	}
}

func TestSMTPNotifier_NoRecipient(t *testing.T) {
	n := NewSMTPNotifier(common.NotifyConfig{}, nil)
	if err := n.NotifyNewAction(context.Background(), sampleRecord()); err == nil {
		t.Error("want error when no recipient is configured")
	}
}

func TestLogNotifier(t *testing.T) {
	if err := NewLogNotifier(nil).NotifyNewAction(context.Background(), sampleRecord()); err != nil {
		t.Error(err)
	}
}
