package request

import (
	"fmt"
	"strings"
	"time"

	"settlement-engine/internal/apperr"
	"settlement-engine/internal/data/entity"
	"settlement-engine/internal/ledger"
	"settlement-engine/pkg/utils"
)

type CreateLedgerEntryRequest struct {
	BookingID string `json:"booking_id" validate:"required,max=128"`
}

type PayEntryRequest struct {
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

type DisputeEntryRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// LedgerFilterQuery is the raw filter taken from query parameters.
type LedgerFilterQuery struct {
	OperatorID string
	Status     string
	From       string
	To         string
}

// ToFilter parses the query. Dates accept RFC3339 or YYYY-MM-DD.
func (q LedgerFilterQuery) ToFilter() (entity.LedgerFilter, error) {
	var filter entity.LedgerFilter

	if op := strings.TrimSpace(q.OperatorID); op != "" {
		filter.OperatorID = &op
	}

	if q.Status != "" {
		status, ok := ledger.ParseStatus(q.Status)
		if !ok {
			return filter, fmt.Errorf("%w: unknown status %q", apperr.ErrInvalidInput, q.Status)
		}
		filter.Status = &status
	}

	from, err := utils.ParseTime(q.From)
	if err != nil {
		return filter, fmt.Errorf("%w: from: %v", apperr.ErrInvalidInput, err)
	}
	to, err := utils.ParseTime(q.To)
	if err != nil {
		return filter, fmt.Errorf("%w: to: %v", apperr.ErrInvalidInput, err)
	}
	if from != nil && to != nil && !from.Before(*to) {
		return filter, fmt.Errorf("%w: from must be before to", apperr.ErrInvalidInput)
	}
	filter.From, filter.To = from, to

	return filter, nil
}
