package models

// UserRole приходит в claim "role" токена внешнего провайдера авторизации.
type UserRole string

const (
	RoleReferee UserRole = "referee"
	RoleAdmin   UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == RoleReferee || r == RoleAdmin
}
