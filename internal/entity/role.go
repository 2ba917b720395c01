package entity

import "strings"

// Role 表示系统中封闭的用户角色集合。
// 新增角色时必须同时更新 ParseRole 与 Valid，使变更在编译期可见。
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleStoreOwner Role = "store_owner"
)

// ParseRole maps a raw string onto the closed role set. The second return
// value reports whether the input named a known role.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	case RoleStoreOwner:
		return RoleStoreOwner, true
	default:
		return "", false
	}
}

// Valid reports whether the role belongs to the known set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleStoreOwner:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// In reports whether the role is a member of the given set.
func (r Role) In(roles ...Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}
