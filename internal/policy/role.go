package policy

import (
	"errors"
	"strings"
)

// ErrUnknownRole 角色不在 admin / user / guest 之内
var ErrUnknownRole = errors.New("unknown role")

// Role 调用方访问级别（封闭枚举）
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// ParseRole 解析角色字符串，仅去除首尾空白，大小写敏感
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.TrimSpace(s)); r {
	case RoleAdmin, RoleUser, RoleGuest:
		return r, nil
	default:
		return "", ErrUnknownRole
	}
}

// Valid 是否为已知角色
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string { return string(r) }
