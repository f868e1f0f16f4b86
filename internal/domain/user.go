package domain

import "time"

// Role enumerates the kinds of accounts.
type Role string

const (
	RoleStudent    Role = "STUDENT"
	RoleDepartment Role = "DEPARTMENT"
	RoleAdmin      Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleDepartment, RoleAdmin:
		return true
	}
	return false
}

// User is an account that can sign in.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Department   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor returns the acting identity for u.
func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, Role: u.Role, DepartmentID: u.Department}
}
