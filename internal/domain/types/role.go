// Package types define tipos de dominio compartidos entre paquetes.
package types

// Role representa el rol de un usuario dentro de la jerarquía de permisos.
type Role string

const (
	// RoleAdministrator puede ejecutar cualquier acción.
	RoleAdministrator Role = "administrator"
	// RoleManager puede ejecutar acciones de manager y staff.
	RoleManager Role = "manager"
	// RoleStaff es el rol base.
	RoleStaff Role = "staff"
)

// rank define el orden total: administrator > manager > staff.
// Un rank 0 significa rol desconocido (nunca autoriza).
func (r Role) rank() int {
	switch r {
	case RoleAdministrator:
		return 3
	case RoleManager:
		return 2
	case RoleStaff:
		return 1
	}
	return 0
}

// IsValid retorna true si el rol pertenece a la enumeración.
func (r Role) IsValid() bool {
	return r.rank() > 0
}

// Permits retorna true si un actor con rol r puede ejecutar una acción
// que requiere el rol required (su rol o uno inferior). Función pura,
// sin estado: la regla de ownership (actuar sobre el propio registro)
// es ortogonal y la compone el caller con IsSelf.
func (r Role) Permits(required Role) bool {
	if !r.IsValid() || !required.IsValid() {
		return false
	}
	return r.rank() >= required.rank()
}

// IsSelf retorna true si el actor opera sobre su propio recurso.
func IsSelf(actorID, resourceOwnerID string) bool {
	return actorID != "" && actorID == resourceOwnerID
}

// ParseRole normaliza un string a Role. Retorna false si no es válido.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.IsValid()
}
