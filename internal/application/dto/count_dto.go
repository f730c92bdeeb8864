package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/counts"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
)

// CreateCountsRequest body para POST /api/counts: un conteo por artículo.
type CreateCountsRequest struct {
	BranchID            int64           `json:"branch_id"`
	Almacen             int             `json:"almacen"`
	ItemCodes           []string        `json:"item_codes"`
	Type                string          `json:"type"`
	Classification      string          `json:"classification"`
	Priority            string          `json:"priority"`
	ResponsibleUserID   *int64          `json:"responsible_user_id,omitempty"`
	TolerancePercentage decimal.Decimal `json:"tolerance_percentage"`
	Notes               string          `json:"notes"`
	ExcludeFrom         *time.Time      `json:"exclude_from,omitempty"`
	ExcludeTo           *time.Time      `json:"exclude_to,omitempty"`
}

// AdjustmentLineRequest artículo con la cantidad física observada.
type AdjustmentLineRequest struct {
	ItemCode string          `json:"item_code"`
	Counted  decimal.Decimal `json:"counted"`
}

// CreateAdjustmentsRequest body para POST /api/counts/adjustments.
type CreateAdjustmentsRequest struct {
	BranchID          int64                   `json:"branch_id"`
	Almacen           int                     `json:"almacen"`
	Lines             []AdjustmentLineRequest `json:"lines"`
	Priority          string                  `json:"priority"`
	ResponsibleUserID *int64                  `json:"responsible_user_id,omitempty"`
	Notes             string                  `json:"notes"`
}

// UpdateCountRequest campos editables; los ausentes no cambian.
type UpdateCountRequest struct {
	ResponsibleUserID   *int64           `json:"responsible_user_id"`
	Priority            *string          `json:"priority"`
	Notes               *string          `json:"notes"`
	TolerancePercentage *decimal.Decimal `json:"tolerance_percentage"`
}

// UpdateStatusRequest body para PATCH /api/counts/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// CaptureRequest cantidad contada de un renglón.
type CaptureRequest struct {
	Counted decimal.Decimal `json:"counted"`
}

// AddDetailRequest artículo a agregar a un conteo existente.
type AddDetailRequest struct {
	ItemCode string `json:"item_code"`
}

// CountResponse salida de un conteo.
type CountResponse struct {
	ID                  int64           `json:"id"`
	Folio               string          `json:"folio"`
	BatchID             string          `json:"batch_id,omitempty"`
	BranchID            int64           `json:"branch_id"`
	Almacen             int             `json:"almacen"`
	Type                string          `json:"type"`
	Classification      string          `json:"classification"`
	Priority            string          `json:"priority"`
	Status              string          `json:"status"`
	ResponsibleUserID   *int64          `json:"responsible_user_id"`
	CreatedByUserID     int64           `json:"created_by_user_id"`
	AssignedAt          *time.Time      `json:"assigned_at"`
	StartedAt           *time.Time      `json:"started_at"`
	FinishedAt          *time.Time      `json:"finished_at"`
	ClosedAt            *time.Time      `json:"closed_at"`
	TolerancePercentage decimal.Decimal `json:"tolerance_percentage"`
	Notes               string          `json:"notes"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// CountDetailResponse salida de un renglón.
type CountDetailResponse struct {
	ID                   int64            `json:"id"`
	CountID              int64            `json:"count_id"`
	ItemCode             string           `json:"item_code"`
	ItemDescription      string           `json:"item_description"`
	Unit                 string           `json:"unit"`
	WarehouseID          int              `json:"warehouse_id"`
	WarehouseName        string           `json:"warehouse_name"`
	SystemStock          decimal.Decimal  `json:"system_stock"`
	CountedStock         *decimal.Decimal `json:"counted_stock"`
	Difference           *decimal.Decimal `json:"difference"`
	DifferencePercentage *decimal.Decimal `json:"difference_percentage"`
	CountedAt            *time.Time       `json:"counted_at"`
	CountedByUserID      *int64           `json:"counted_by_user_id"`
}

// CountWithDetailsResponse conteo con sus renglones.
type CountWithDetailsResponse struct {
	CountResponse
	Details []CountDetailResponse `json:"details"`
}

// CountListResponse lista paginada de conteos.
type CountListResponse struct {
	Items []CountResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// CreateCountsResponse resultado de una creación masiva.
type CreateCountsResponse struct {
	BatchID  string            `json:"batch_id"`
	Counts   []CountResponse   `json:"counts"`
	NotFound []string          `json:"not_found"`
	Excluded []string          `json:"excluded"`
	Requests []RequestResponse `json:"requests,omitempty"`
}

// ToleranceAlertResponse diferencia fuera de tolerancia en una captura.
type ToleranceAlertResponse struct {
	ItemCode             string          `json:"item_code"`
	Difference           decimal.Decimal `json:"difference"`
	DifferencePercentage decimal.Decimal `json:"difference_percentage"`
	TolerancePercentage  decimal.Decimal `json:"tolerance_percentage"`
}

// CaptureResponse resultado de capturar un renglón.
type CaptureResponse struct {
	Detail     CountDetailResponse     `json:"detail"`
	Count      CountResponse           `json:"count"`
	AutoClosed bool                    `json:"auto_closed"`
	Alert      *ToleranceAlertResponse `json:"alert,omitempty"`
}

// NewCountResponse mapea la entidad.
func NewCountResponse(c *entity.Count) CountResponse {
	return CountResponse{
		ID: c.ID, Folio: c.Folio, BatchID: c.BatchID, BranchID: c.BranchID, Almacen: c.Almacen,
		Type: c.Type, Classification: c.Classification, Priority: c.Priority, Status: c.Status,
		ResponsibleUserID: c.ResponsibleUserID, CreatedByUserID: c.CreatedByUserID,
		AssignedAt: c.AssignedAt, StartedAt: c.StartedAt, FinishedAt: c.FinishedAt, ClosedAt: c.ClosedAt,
		TolerancePercentage: c.TolerancePercentage, Notes: c.Notes,
		CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

// NewCountDetailResponse mapea el renglón.
func NewCountDetailResponse(d *entity.CountDetail) CountDetailResponse {
	return CountDetailResponse{
		ID: d.ID, CountID: d.CountID, ItemCode: d.ItemCode, ItemDescription: d.ItemDescription,
		Unit: d.Unit, WarehouseID: d.WarehouseID, WarehouseName: d.WarehouseName,
		SystemStock: d.SystemStock, CountedStock: d.CountedStock, Difference: d.Difference,
		DifferencePercentage: d.DifferencePercentage, CountedAt: d.CountedAt, CountedByUserID: d.CountedByUserID,
	}
}

// NewCountResponses mapea una lista de conteos.
func NewCountResponses(list []*entity.Count) []CountResponse {
	out := make([]CountResponse, 0, len(list))
	for _, c := range list {
		out = append(out, NewCountResponse(c))
	}
	return out
}

// NewCountWithDetailsResponse mapea conteo y renglones.
func NewCountWithDetailsResponse(c *entity.Count, details []*entity.CountDetail) CountWithDetailsResponse {
	out := CountWithDetailsResponse{CountResponse: NewCountResponse(c), Details: make([]CountDetailResponse, 0, len(details))}
	for _, d := range details {
		out.Details = append(out.Details, NewCountDetailResponse(d))
	}
	return out
}

// NewCreateCountsResponse mapea el resultado de creación.
func NewCreateCountsResponse(r *counts.CreateResult) CreateCountsResponse {
	out := CreateCountsResponse{
		BatchID:  r.BatchID,
		Counts:   NewCountResponses(r.Counts),
		NotFound: nonNil(r.NotFound),
		Excluded: nonNil(r.Excluded),
	}
	if len(r.Requests) > 0 {
		out.Requests = NewRequestResponses(r.Requests)
	}
	return out
}

// NewCaptureResponse mapea el resultado de captura.
func NewCaptureResponse(r *counts.DetailCaptureResult) CaptureResponse {
	out := CaptureResponse{
		Detail:     NewCountDetailResponse(r.Detail),
		Count:      NewCountResponse(r.Count),
		AutoClosed: r.AutoClosed,
	}
	if r.Alert != nil {
		out.Alert = &ToleranceAlertResponse{
			ItemCode:             r.Alert.ItemCode,
			Difference:           r.Alert.Difference,
			DifferencePercentage: r.Alert.DifferencePercentage,
			TolerancePercentage:  r.Alert.TolerancePercentage,
		}
	}
	return out
}

// ToCreateInput convierte el body al input del motor.
func (r CreateCountsRequest) ToCreateInput(actorID int64) counts.CreateInput {
	return counts.CreateInput{
		BranchID: r.BranchID, Almacen: r.Almacen, ItemCodes: r.ItemCodes, Type: r.Type,
		Classification: r.Classification, Priority: r.Priority, ResponsibleUserID: r.ResponsibleUserID,
		TolerancePercentage: r.TolerancePercentage, Notes: r.Notes,
		ExcludeFrom: r.ExcludeFrom, ExcludeTo: r.ExcludeTo, ActorID: actorID,
	}
}

// ToAdjustmentInput convierte el body al input del motor.
func (r CreateAdjustmentsRequest) ToAdjustmentInput(actorID int64) counts.AdjustmentInput {
	lines := make([]counts.AdjustmentLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, counts.AdjustmentLine{ItemCode: l.ItemCode, Counted: l.Counted})
	}
	return counts.AdjustmentInput{
		BranchID: r.BranchID, Almacen: r.Almacen, Lines: lines, Priority: r.Priority,
		ResponsibleUserID: r.ResponsibleUserID, Notes: r.Notes, ActorID: actorID,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
