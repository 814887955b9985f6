package models

// Role names carried in access tokens
const (
	RoleTravelAgent = "travel_agent"
	RoleBasicAdmin  = "basic_admin"
	RoleSuperAdmin  = "super_admin"
)

// IsValidRole reports whether role is one of the CRM roles
func IsValidRole(role string) bool {
	return role == RoleTravelAgent || role == RoleBasicAdmin || role == RoleSuperAdmin
}

// User is a CRM account record (agent or admin)
type User struct {
	ID             string   `json:"id,omitempty"`
	Name           *string  `json:"name,omitempty"`
	Email          *string  `json:"email,omitempty"`
	Phone          *string  `json:"phone,omitempty"`
	Role           *string  `json:"role,omitempty"`
	Region         *string  `json:"region,omitempty"`
	CommissionRate *float64 `json:"commission_rate,omitempty"` // percent
}

// Actor identifies who performs a lifecycle operation
type Actor struct {
	UserID   string
	UserName string
	Roles    []string
	Metadata map[string]interface{}
}

// HasRole reports whether the actor carries role
func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the actor is a basic or super admin
func (a Actor) IsAdmin() bool {
	return a.HasRole(RoleBasicAdmin) || a.HasRole(RoleSuperAdmin)
}
