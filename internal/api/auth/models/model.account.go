package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	basemodels "admin_backoffice/internal/api/base/models"
)

// Trạng thái tài khoản (data.status)
const (
	AccountStatusActive = "active"
	AccountStatusLocked = "locked"
)

// DeletedEmailDomain là domain của email sau khi tài khoản bị xóa mềm
const DeletedEmailDomain = "deleted.com"

// AccountEmail email đăng nhập, luôn lưu dạng chữ thường
type AccountEmail struct {
	Value       string `json:"value" bson:"value" index:"unique,active"`
	Verified    bool   `json:"verified" bson:"verified"`
	LastChanged *int64 `json:"lastChanged" bson:"lastChanged"`
}

// AccountProfile thông tin hiển thị
type AccountProfile struct {
	Name string `json:"name" bson:"name"`
}

// AccountSecurity thông tin bảo mật, không bao giờ trả ra JSON trừ thời điểm đổi mật khẩu
type AccountSecurity struct {
	PasswordHash               string  `json:"-" bson:"passwordHash"`
	TfaSecret                  *string `json:"-" bson:"tfaSecret"`
	ForgotPasswordToken        *string `json:"-" bson:"forgotPasswordToken"`
	ForgotPasswordTokenExpires *int64  `json:"-" bson:"forgotPasswordTokenExpires"`
	LastPasswordChange         *int64  `json:"lastPasswordChange" bson:"lastPasswordChange"`
}

// AccountData dữ liệu nghiệp vụ của tài khoản
type AccountData struct {
	Role      primitive.ObjectID `json:"role" bson:"role" index:"single:1"`
	LastLogin *int64             `json:"lastLogin" bson:"lastLogin"`
	Status    string             `json:"status" bson:"status"`
}

// Account tài khoản quản trị
type Account struct {
	ID       primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Email    AccountEmail        `json:"email" bson:"email"`
	Profile  AccountProfile      `json:"profile" bson:"profile"`
	Security AccountSecurity     `json:"security" bson:"security"`
	Data     AccountData         `json:"data" bson:"data"`
	Metadata basemodels.Metadata `json:"metadata" bson:"metadata"`
}

func (a *Account) GetID() primitive.ObjectID {
	return a.ID
}

func (a *Account) SetID(id primitive.ObjectID) {
	a.ID = id
}

func (a *Account) GetMetadata() *basemodels.Metadata {
	return &a.Metadata
}
