package entity

// Roles válidos para User.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleContador   = "contador"
)

// Permisos que verifica el PermissionChecker contra la base local.
const (
	PermCountsCreate    = "conteos.crear"
	PermCountsCapture   = "conteos.capturar"
	PermCountsManage    = "conteos.administrar"
	PermRequestsReview  = "solicitudes.revisar"
	PermBranchesManage  = "sucursales.administrar"
	PermCacheInvalidate = "cache.invalidar"
)

// User representa un usuario del sistema (la gestión de usuarios y roles vive fuera de este servicio).
type User struct {
	ID     int64
	Name   string
	Email  string
	Role   string
	Active bool
}
