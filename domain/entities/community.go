package entities

// Guild is a Discord server with the roles it defines
type Guild struct {
	ID    string
	Name  string
	Roles []Role
}

// Role is a Discord role, looked up by exact name and never created here
type Role struct {
	ID   string
	Name string
}

// Member is a Discord guild member
type Member struct {
	UserID      string
	Username    string
	DisplayName string // Global display name, empty when unset
	Nickname    string // Guild nickname, empty when unset
}

// RoleNamed returns the first guild role whose name equals name exactly
func (g Guild) RoleNamed(name string) (Role, bool) {
	for _, role := range g.Roles {
		if role.Name == name {
			return role, true
		}
	}
	return Role{}, false
}
