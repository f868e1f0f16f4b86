package domain

// Actor is the identity on whose behalf a lifecycle action runs.
type Actor struct {
	UserID       int64
	Role         Role
	DepartmentID string
}

func (a Actor) IsStudent() bool    { return a.Role == RoleStudent }
func (a Actor) IsDepartment() bool { return a.Role == RoleDepartment }
func (a Actor) IsAdmin() bool      { return a.Role == RoleAdmin }
