package domain

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleDepartment  Role = "department"
	RoleMandalAdmin Role = "mandal-admin"
	RoleCitizen     Role = "citizen"
)

// PrincipalRecord is the resolved identity as stored by the credential layer.
type PrincipalRecord struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	Role       Role   `json:"role" yaml:"role"`
	Department string `json:"department,omitempty" yaml:"department,omitempty"`
	MandalArea string `json:"mandalArea,omitempty" yaml:"mandalArea,omitempty"`
}

// Principal is the closed set of scoping identities. Only the variants in this
// package implement it.
type Principal interface {
	Role() Role
	principal()
}

type Admin struct{}

type DepartmentHead struct {
	Department string
}

type MandalAdmin struct {
	Area string
}

type Citizen struct {
	ID string
}

func (Admin) Role() Role          { return RoleAdmin }
func (DepartmentHead) Role() Role { return RoleDepartment }
func (MandalAdmin) Role() Role    { return RoleMandalAdmin }
func (Citizen) Role() Role        { return RoleCitizen }

func (Admin) principal()          {}
func (DepartmentHead) principal() {}
func (MandalAdmin) principal()    {}
func (Citizen) principal()        {}

// Principal converts the record into its scoping variant. Attributes that are
// meaningless for the role are ignored.
func (r PrincipalRecord) Principal() (Principal, error) {
	switch r.Role {
	case RoleAdmin:
		return Admin{}, nil
	case RoleDepartment:
		if strings.TrimSpace(r.Department) == "" {
			return nil, NewValidationError("department", "is required for department role")
		}
		return DepartmentHead{Department: r.Department}, nil
	case RoleMandalAdmin:
		if strings.TrimSpace(r.MandalArea) == "" {
			return nil, NewValidationError("mandalArea", "is required for mandal-admin role")
		}
		return MandalAdmin{Area: r.MandalArea}, nil
	case RoleCitizen:
		if strings.TrimSpace(r.ID) == "" {
			return nil, NewValidationError("id", "is required for citizen role")
		}
		return Citizen{ID: r.ID}, nil
	default:
		return nil, NewValidationError("role", fmt.Sprintf("unknown role %q", r.Role))
	}
}

// RoleLabel is the human readable role name shown on dashboards.
func RoleLabel(role Role) string {
	switch role {
	case RoleAdmin:
		return "City Administrator"
	case RoleDepartment:
		return "Department Head"
	case RoleMandalAdmin:
		return "Mandal Administrator"
	case RoleCitizen:
		return "Citizen"
	default:
		return "Unknown"
	}
}

func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	switch role {
	case RoleAdmin, RoleDepartment, RoleMandalAdmin, RoleCitizen:
		return role, nil
	}
	return "", NewValidationError("role", fmt.Sprintf("unknown role %q", value))
}
