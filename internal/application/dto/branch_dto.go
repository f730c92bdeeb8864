package dto

import (
	"time"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/branches"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
)

// BranchRequest alta o edición de sucursal. En edición, password vacío conserva el guardado.
type BranchRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	Charset  string `json:"charset"`
	Active   *bool  `json:"active"`
}

// BranchResponse salida de una sucursal; la contraseña nunca sale.
type BranchResponse struct {
	ID        int64                `json:"id"`
	Code      string               `json:"code"`
	Name      string               `json:"name"`
	Host      string               `json:"host"`
	Port      int                  `json:"port"`
	User      string               `json:"user"`
	Database  string               `json:"database"`
	Charset   string               `json:"charset"`
	Active    bool                 `json:"active"`
	Health    *entity.BranchStatus `json:"health,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// HealthResponse estatus de todas las sucursales.
type HealthResponse struct {
	Status    string                `json:"status"`
	Connected int                   `json:"connected"`
	Total     int                   `json:"total"`
	Branches  []entity.BranchStatus `json:"branches"`
}

// ToInput convierte el body al input del servicio.
func (r BranchRequest) ToInput(actorID int64) branches.Input {
	return branches.Input{
		Code: r.Code, Name: r.Name, Host: r.Host, Port: r.Port, User: r.User, Password: r.Password,
		Database: r.Database, Charset: r.Charset, Active: r.Active, ActorID: actorID,
	}
}

// NewBranchResponse mapea la entidad; health es opcional.
func NewBranchResponse(b *entity.Branch, health *entity.BranchStatus) BranchResponse {
	return BranchResponse{
		ID: b.ID, Code: b.Code, Name: b.Name, Host: b.Host, Port: b.Port, User: b.User,
		Database: b.Database, Charset: b.Charset, Active: b.Active, Health: health,
		CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt,
	}
}

// NewHealthResponse resume la salud: "ok" si todas conectadas, "degraded" si alguna falla.
func NewHealthResponse(statuses []entity.BranchStatus) HealthResponse {
	connected := 0
	for _, s := range statuses {
		if s.Status == entity.BranchStatusConnected {
			connected++
		}
	}
	status := "ok"
	if connected < len(statuses) {
		status = "degraded"
	}
	if statuses == nil {
		statuses = []entity.BranchStatus{}
	}
	return HealthResponse{Status: status, Connected: connected, Total: len(statuses), Branches: statuses}
}
