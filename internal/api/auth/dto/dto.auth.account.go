// Package authdto - các DTO đầu vào/đầu ra của domain auth.
package authdto

import (
	"admin_backoffice/internal/utility"
)

// AccountCreateInput đầu vào tạo tài khoản.
type AccountCreateInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,strong_password,max=72"`
	Name     string `json:"name" validate:"required,max=100,no_xss"`
	RoleID   string `json:"roleId" validate:"required,mongodb"`
	Verified bool   `json:"verified"`
}

// AccountUpdateInput đầu vào cập nhật từng phần tài khoản.
type AccountUpdateInput struct {
	Email    utility.Optional[string] `json:"email" validate:"omitempty,email,max=254"`
	Password utility.Optional[string] `json:"password" validate:"omitempty,strong_password,max=72"`
	Name     utility.Optional[string] `json:"name" validate:"omitempty,max=100,no_xss"`
	RoleID   utility.Optional[string] `json:"roleId" validate:"omitempty,mongodb"`
	Verified utility.Optional[bool]   `json:"verified"`
	Status   utility.Optional[string] `json:"status" validate:"omitempty,oneof=active locked"`
}

// LoginInput đầu vào đăng nhập bằng email và mật khẩu.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult kết quả đăng nhập.
type LoginResult struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}
