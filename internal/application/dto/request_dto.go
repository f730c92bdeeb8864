package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
)

// UpdateRequestRequest body para PATCH /api/requests/:id; los campos ausentes no cambian.
type UpdateRequestRequest struct {
	Status          *string `json:"status"`
	ResolutionNotes *string `json:"resolution_notes"`
	EvidenceFile    *string `json:"evidence_file"`
}

// RequestResponse salida de una solicitud de ajuste.
type RequestResponse struct {
	ID                int64           `json:"id"`
	Folio             string          `json:"folio"`
	CountID           int64           `json:"count_id"`
	CountDetailID     int64           `json:"count_detail_id"`
	BranchID          int64           `json:"branch_id"`
	ItemCode          string          `json:"item_code"`
	SystemStock       decimal.Decimal `json:"system_stock"`
	CountedStock      decimal.Decimal `json:"counted_stock"`
	Difference        decimal.Decimal `json:"difference"`
	Status            string          `json:"status"`
	RequestedByUserID int64           `json:"requested_by_user_id"`
	ReviewedByUserID  *int64          `json:"reviewed_by_user_id"`
	ReviewedAt        *time.Time      `json:"reviewed_at"`
	ResolutionNotes   string          `json:"resolution_notes"`
	EvidenceFile      string          `json:"evidence_file"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// RequestListResponse lista paginada de solicitudes.
type RequestListResponse struct {
	Items []RequestResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// NewRequestResponse mapea la entidad.
func NewRequestResponse(r *entity.Request) RequestResponse {
	return RequestResponse{
		ID: r.ID, Folio: r.Folio, CountID: r.CountID, CountDetailID: r.CountDetailID, BranchID: r.BranchID,
		ItemCode: r.ItemCode, SystemStock: r.SystemStock, CountedStock: r.CountedStock, Difference: r.Difference,
		Status: r.Status, RequestedByUserID: r.RequestedByUserID, ReviewedByUserID: r.ReviewedByUserID,
		ReviewedAt: r.ReviewedAt, ResolutionNotes: r.ResolutionNotes, EvidenceFile: r.EvidenceFile,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// NewRequestResponses mapea una lista de solicitudes.
func NewRequestResponses(list []*entity.Request) []RequestResponse {
	out := make([]RequestResponse, 0, len(list))
	for _, r := range list {
		out = append(out, NewRequestResponse(r))
	}
	return out
}
