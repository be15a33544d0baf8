package model

import (
	"time"

	"wastewise/backend/internal/policy"
)

// User 用户表（users）
// Email 唯一性由业务层在插入前检查，表结构不做约束
type User struct {
	ID        uint        `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name      string      `gorm:"column:username;not null"      json:"name"`
	Email     string      `gorm:"not null;index"                json:"email"`
	Password  string      `gorm:"not null"                      json:"-"` // bcrypt 哈希
	Role      policy.Role `gorm:"type:varchar(20);not null"     json:"role"`
	CreatedAt time.Time   `gorm:"autoCreateTime"                json:"created_at"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
