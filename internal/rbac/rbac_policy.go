package rbac

import "go-leave/internal/domain"

type PolicyRow struct {
	Role     string
	Resource string
	Action   string
}

type Policy struct {
	Permissions []PolicyRow
	// Inherits maps a role to the roles whose permissions it also holds.
	Inherits map[string][]string
}

// DefaultPolicy is the permission table of the leave service. Ownership
// checks (an employee only sees their own records) live in the handlers
// and services; the policy only says which operations a role may call.
func DefaultPolicy() Policy {
	return Policy{
		Permissions: []PolicyRow{
			{domain.RoleEmployee, "leave", "apply"},
			{domain.RoleEmployee, "leave", "read_own"},
			{domain.RoleEmployee, "leave", "cancel"},
			{domain.RoleEmployee, "balance", "read"},
			{domain.RoleEmployee, "employee", "read"},
			{domain.RoleEmployee, "employee", "picture"},
			{domain.RoleEmployee, "leave_type", "read"},

			{domain.RoleAdmin, "leave", "read_all"},
			{domain.RoleAdmin, "leave", "decide"},
			{domain.RoleAdmin, "balance", "manage"},
			{domain.RoleAdmin, "employee", "read_all"},
			{domain.RoleAdmin, "employee", "create"},
			{domain.RoleAdmin, "employee", "update"},
			{domain.RoleAdmin, "employee", "delete"},
			{domain.RoleAdmin, "role", "read"},
		},
		Inherits: map[string][]string{
			domain.RoleAdmin: {domain.RoleEmployee},
		},
	}
}
