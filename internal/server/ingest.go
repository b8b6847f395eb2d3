package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/youngcitybandit/nj-health-monitor/constants"
	"github.com/youngcitybandit/nj-health-monitor/internal/entity"
)

// buildRecordJSONSchema returns the JSON-Schema for backfill submissions
// as a generic map; it is compiled once and used to validate every POST.
func buildRecordJSONSchema() map[string]any {
	props := map[string]any{
		"facility_name":            map[string]any{"type": "string", "minLength": 1},
		"facility_address":         map[string]any{"type": "string"},
		"facility_license_number":  map[string]any{"type": "string"},
		"enforcement_date":         map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"enforcement_action_type":  map[string]any{"type": "string", "enum": constants.EnforcementActionTypes},
		"penalty_amount":           map[string]any{"type": "string", "pattern": `^\$?[\d,]+$`},
		"violation_details":        map[string]any{"type": "string"},
		"key_violations":           map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"effective_date":           map[string]any{"type": "string"},
		"contact_information":      map[string]any{"type": "string"},
		"administrator_name":       map[string]any{"type": "string"},
		"administrator_first_name": map[string]any{"type": "string"},
		"pdf_url":                  map[string]any{"type": "string"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"facility_name", "enforcement_date"},
	}
}

var recordSchema = mustCompileSchema(buildRecordJSONSchema())

func mustCompileSchema(schemaMap map[string]any) *jsonschema.Schema {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		panic(fmt.Sprintf("marshal schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.json", bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add schema: %v", err))
	}
	schema, err := compiler.Compile("record.json")
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return schema
}

type ingestRequest struct {
	FacilityName           string   `json:"facility_name"`
	FacilityAddress        string   `json:"facility_address"`
	FacilityLicenseNumber  string   `json:"facility_license_number"`
	EnforcementDate        string   `json:"enforcement_date"`
	EnforcementActionType  string   `json:"enforcement_action_type"`
	PenaltyAmount          string   `json:"penalty_amount"`
	ViolationDetails       string   `json:"violation_details"`
	KeyViolations          []string `json:"key_violations"`
	EffectiveDate          string   `json:"effective_date"`
	ContactInformation     string   `json:"contact_information"`
	AdministratorName      string   `json:"administrator_name"`
	AdministratorFirstName string   `json:"administrator_first_name"`
	PDFURL                 string   `json:"pdf_url"`
}

// handleIngestRecord accepts a manually supplied record (backfill of
// entries published before monitoring started). The payload is validated
// against the JSON schema and then pushed through the same reconciliation
// and scoring as scraped entries.
func (s *Server) handleIngestRecord(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var generic any
	if err := json.Unmarshal(body, &generic); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if err := recordSchema.Validate(generic); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity,
			fmt.Errorf("payload does not match schema: %w", err))
		return
	}

	var req ingestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	date, err := time.Parse("2006-01-02", req.EnforcementDate)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	entry := entity.Entry{
		Date:              date,
		FacilityName:      req.FacilityName,
		EnforcementAction: req.EnforcementActionType,
		PDFURL:            req.PDFURL,
		ScrapedAt:         time.Now(),
	}
	fields := entity.ParsedFields{
		FacilityName:           req.FacilityName,
		FacilityAddress:        req.FacilityAddress,
		FacilityLicenseNumber:  req.FacilityLicenseNumber,
		EnforcementActionType:  req.EnforcementActionType,
		PenaltyAmount:          req.PenaltyAmount,
		ViolationDetails:       req.ViolationDetails,
		KeyViolations:          req.KeyViolations,
		EffectiveDate:          req.EffectiveDate,
		ContactInformation:     req.ContactInformation,
		AdministratorName:      req.AdministratorName,
		AdministratorFirstName: req.AdministratorFirstName,
	}

	rec := s.reconciler.Process(entry, fields, "")
	if err := s.records.Upsert(r.Context(), rec); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("record ingested", "id", rec.ID, "facility", rec.FacilityName)
	s.writeJSON(w, http.StatusCreated, rec)
}
