package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Admin 管理员模型
// 后台是内部财务工具，只有管理员账号，没有多角色体系
type Admin struct {
	ID          uint       `json:"id" gorm:"primaryKey"`                // 主键ID
	Username    string     `json:"username" gorm:"size:50;uniqueIndex"` // 用户名，登录用，唯一
	Password    string     `json:"-" gorm:"size:100"`                   // 密码，不返回给前端
	Name        string     `json:"name" gorm:"size:50"`                 // 姓名
	LastLoginAt *time.Time `json:"last_login_at"`                       // 最后登录时间
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`    // 创建时间
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`    // 更新时间
}

// TableName 返回表名
func (Admin) TableName() string {
	return "admins"
}

// SetPassword 设置加密密码
func (a *Admin) SetPassword(plainPassword string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.Password = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码
func (a *Admin) CheckPassword(plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(plainPassword))
	return err == nil
}
