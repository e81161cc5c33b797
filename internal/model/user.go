package model

type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleManager  UserRole = "gestor"
	UserRoleOperator UserRole = "operador"
)

var roleRank = map[UserRole]int{
	UserRoleOperator: 1,
	UserRoleManager:  2,
	UserRoleAdmin:    3,
}

// AtLeast reports whether r grants every permission of min.
func (r UserRole) AtLeast(min UserRole) bool {
	return roleRank[r] >= roleRank[min] && roleRank[r] > 0
}

// User mirrors the profile document kept next to the authentication account.
// Its id is the authentication uid.
type User struct {
	Base
	Name  string   `firestore:"nome" json:"nome" validate:"required"`
	Email string   `firestore:"email" json:"email" validate:"required,email"`
	Role  UserRole `firestore:"role" json:"role" validate:"required,oneof=admin gestor operador"`
}
