package model

import (
	baseModel "linenloft/pkg/model"
)

// User 顾客账号模型
type User struct {
	baseModel.BaseModel
	Email    string `gorm:"unique;not null" json:"email"`
	Password string `gorm:"not null" json:"-"` // bcrypt 哈希，不返回给前端
	Name     string `json:"name"`
	Role     int    `gorm:"default:1" json:"role"`
	Status   int    `gorm:"default:1" json:"status"`
}

const (
	RoleCustomer = 1
	RoleAdmin    = 2

	StatusNormal = 1
	StatusBanned = 2
)
