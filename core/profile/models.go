package profile

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
)

// Roles
const (
	// Admin
	RoleAdmin       = "admin:"
	RoleAdminOwner  = "admin:owner"
	RoleAdminEditor = "admin:editor"

	// Instructor
	RoleInstructor = "instructor:"

	// Student
	RoleStudent = "student:"
)

var (
	AdminRoles      = []string{RoleAdmin, RoleAdminOwner, RoleAdminEditor}
	InstructorRoles = []string{RoleInstructor}
	StudentRoles    = []string{RoleStudent}
	AllRoles        = getAllRoles()

	rolePriorities = map[string]int{
		// Admins: 30 - 21
		RoleAdminOwner:  30,
		RoleAdminEditor: 25,
		RoleAdmin:       21,

		// Instructors: 20 - 11
		RoleInstructor: 11,

		// Students: 10 - 1
		RoleStudent: 1,
	}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Instructor", Value: RoleInstructor},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Admin Editor", Value: RoleAdminEditor},
		{Name: "Admin Owner", Value: RoleAdminOwner},
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 5)
	all = append(all, AdminRoles...)
	all = append(all, InstructorRoles...)
	all = append(all, StudentRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Profile is the site-side record of an identity owned by the external auth provider.
// ID is the provider's subject claim.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (p *Profile) RoleStartsWith(prefix string) bool {
	for _, role := range p.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (p *Profile) IsAdmin() bool {
	return p.RoleStartsWith(RoleAdmin)
}

func (p *Profile) IsInstructor() bool {
	return p.RoleStartsWith(RoleInstructor)
}

func (p *Profile) IsStudent() bool {
	return p.RoleStartsWith(RoleStudent)
}

// HasAnyRole reports whether p holds one of roles; no roles means any profile.
func (p *Profile) HasAnyRole(roles ...string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if core.StringInSlice(role, p.Roles) {
			return true
		}
	}
	return false
}

// SetRoles defines the roles an admin grants to a profile.
type SetRoles struct {
	Roles []string `json:"roles" validate:"allroles"`
}

func (sr *SetRoles) Validate(_ context.Context, validate *validator.Validate) error {
	roles := make([]string, 0, len(sr.Roles))
	for _, role := range sr.Roles {
		role = core.CleanString(role, true /* lower */)
		if role != "" && !core.StringInSlice(role, roles) {
			roles = append(roles, role)
		}
	}
	sr.Roles = roles
	return validate.Struct(sr)
}

type QueryFilter struct {
	Search string   `query:"search"`
	Roles  []string `query:"role"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
