package entity

import "time"

// Estatus de conexión de una sucursal. No existe un estado "desconectado" en reposo:
// la sucursal atiende consultas o está marcada con error.
const (
	BranchStatusConnected = "connected"
	BranchStatusError     = "error"
)

// Branch representa la configuración de una sucursal con su propia base ERP (MySQL).
type Branch struct {
	ID        int64
	Code      string
	Name      string
	Host      string
	Port      int
	User      string
	Password  string // en claro solo en memoria; en la base local se guarda cifrada
	Database  string
	Charset   string // utf8mb4 por defecto; latin1 en ERPs antiguos
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BranchHealth es la terna estatus/fecha/error de una sucursal. Se reemplaza completa en cada chequeo.
type BranchHealth struct {
	Status        string
	LastCheck     time.Time
	ErrorMessage  string
	SchemaVariant string
}

// BranchStatus instantánea de observabilidad por sucursal.
type BranchStatus struct {
	ID            int64     `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	LastCheck     time.Time `json:"last_check"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	SchemaVariant string    `json:"schema_variant,omitempty"`
}
