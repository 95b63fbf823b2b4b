package enums

import "fmt"

// AdminRole represents a platform-level permissions role.
type AdminRole string

const (
	AdminRolePlatformAdmin      AdminRole = "platform_admin"
	AdminRolePlatformSuperAdmin AdminRole = "platform_super_admin"
	AdminRolePartnerAdmin       AdminRole = "partner_admin"
)

var validAdminRoles = []AdminRole{
	AdminRolePlatformAdmin,
	AdminRolePlatformSuperAdmin,
	AdminRolePartnerAdmin,
}

// String implements fmt.Stringer.
func (a AdminRole) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AdminRole.
func (a AdminRole) IsValid() bool {
	for _, candidate := range validAdminRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAdminRole converts raw input into an AdminRole.
func ParseAdminRole(value string) (AdminRole, error) {
	for _, candidate := range validAdminRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid admin role %q", value)
}

// TeamRole represents a shop-level team member role.
type TeamRole string

const (
	TeamRoleStaff   TeamRole = "staff"
	TeamRoleManager TeamRole = "manager"
)

var validTeamRoles = []TeamRole{
	TeamRoleStaff,
	TeamRoleManager,
}

// String implements fmt.Stringer.
func (t TeamRole) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TeamRole.
func (t TeamRole) IsValid() bool {
	for _, candidate := range validTeamRoles {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTeamRole converts raw input into a TeamRole.
func ParseTeamRole(value string) (TeamRole, error) {
	for _, candidate := range validTeamRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid team role %q", value)
}
