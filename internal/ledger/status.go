package ledger

import (
	"strings"

	"settlement-engine/internal/data/entity"
)

// Tone is the visual emphasis a client gives a status badge.
type Tone string

const (
	ToneWarning Tone = "warning"
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneDanger  Tone = "danger"
	ToneNeutral Tone = "neutral"
)

// StatusDescription is the presentation of a ledger status, independent of
// any UI framework.
type StatusDescription struct {
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
}

// DescribeStatus maps a status to its label and tone.
func DescribeStatus(status entity.LedgerStatus) StatusDescription {
	switch entity.LedgerStatus(strings.ToLower(strings.TrimSpace(string(status)))) {
	case entity.LedgerStatusPending:
		return StatusDescription{Label: "Pendiente", Tone: ToneWarning}
	case entity.LedgerStatusProcessed:
		return StatusDescription{Label: "Procesado", Tone: ToneInfo}
	case entity.LedgerStatusPaid:
		return StatusDescription{Label: "Pagado", Tone: ToneSuccess}
	case entity.LedgerStatusDisputed:
		return StatusDescription{Label: "En disputa", Tone: ToneDanger}
	default:
		return StatusDescription{Label: "Desconocido", Tone: ToneNeutral}
	}
}

// ParseStatus normalizes a status coming from query strings.
func ParseStatus(s string) (entity.LedgerStatus, bool) {
	status := entity.LedgerStatus(strings.ToLower(strings.TrimSpace(s)))
	return status, status.Valid()
}
