package dto

const (
	RoleSuperAdmin       = "superadmin"
	RoleAdmin            = "admin"
	RoleProjectManager   = "project_manager"
	RoleFinanceManager   = "finance_manager"
	RoleInventoryManager = "inventory_manager"
	RoleHRManager        = "hr_manager"
	RoleSupervisor       = "supervisor"
	RoleStaff            = "staff"
)

// UserClaims is what the auth middleware stores in the request context.
type UserClaims struct {
	UserID    uint64
	Username  string
	Role      string
	SessionID string
}
