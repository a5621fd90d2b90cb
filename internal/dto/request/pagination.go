package request

import "settlement-engine/pkg/utils"

type PaginatedRequest struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"per_page" validate:"min=1,max=100"`
}

// NewPaginatedRequest clamps raw query values.
func NewPaginatedRequest(page, perPage int) PaginatedRequest {
	page, perPage = utils.NormalizePage(page, perPage)
	return PaginatedRequest{Page: page, PerPage: perPage}
}

func (p PaginatedRequest) Offset() int {
	return utils.CalculateOffset(p.Page, p.Limit())
}

func (p PaginatedRequest) Limit() int {
	_, perPage := utils.NormalizePage(p.Page, p.PerPage)
	return perPage
}
