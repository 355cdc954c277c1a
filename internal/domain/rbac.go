package domain

const (
	RoleAdmin    = "ADMIN"
	RoleEmployee = "EMPLOYEE"
)

type EnforceRequest struct {
	Role     string `json:"role" binding:"required,oneof=ADMIN EMPLOYEE"`
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

type EnforceResponse struct {
	Allowed bool `json:"allowed"`
}

type PermissionResponse struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

type RoleResponse struct {
	Name        string               `json:"name"`
	Inherits    []string             `json:"inherits,omitempty"`
	Permissions []PermissionResponse `json:"permissions"`
}

// CanAccessEmployee reports whether the caller may read or act on the
// employee record identified by targetID.
func CanAccessEmployee(role string, actorID, targetID uint) bool {
	return role == RoleAdmin || actorID == targetID
}
