package ws

import (
	"encoding/json"
	"time"

	"energy_bill/internal/billing"
	"energy_bill/internal/report"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants
const (
	// Client -> Server
	TypeViewRequest  = "view:request"
	TypeReportReload = "report:reload"

	// Server -> Client
	TypeReportLoaded = "report:loaded"
	TypeViewData     = "view:data"
	TypeError        = "error"
)

// Client -> Server messages

// ViewRequestPayload asks for one view. An empty ReportID selects the
// latest report.
type ViewRequestPayload struct {
	View     string `json:"view"`
	ReportID string `json:"report_id,omitempty"`
}

// Server -> Client messages

type ReportLoadedPayload struct {
	ID          string            `json:"id"`
	CreatedAt   string            `json:"created_at"`
	Tariff      string            `json:"tariff"`
	Days        int               `json:"days"`
	Partial     bool              `json:"partial"`
	ParseErrors []string          `json:"parse_errors,omitempty"`
	Totals      report.TotalsView `json:"totals"`
}

type ViewDataPayload struct {
	ReportID string `json:"report_id"`
	View     string `json:"view"`
	Data     any    `json:"data"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func ReportLoadedFromReport(r *billing.Report) ReportLoadedPayload {
	return ReportLoadedPayload{
		ID:          r.ID.String(),
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
		Tariff:      r.Tariff.Name,
		Days:        r.Days,
		Partial:     r.Partial(),
		ParseErrors: r.ParseErrors,
		Totals:      report.NewTotalsView(r.Totals),
	}
}
