package authz

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor là tài khoản đang thực hiện thao tác, đã được xác thực
type Actor struct {
	ID          primitive.ObjectID `json:"id"`
	RoleID      primitive.ObjectID `json:"roleId"`
	RoleLevel   int                `json:"roleLevel"`
	Permissions []string           `json:"permissions"`
}

// SystemActor trả về actor dùng cho các tác vụ nội bộ (khởi tạo dữ liệu)
func SystemActor() *Actor {
	return &Actor{
		RoleLevel:   SystemAdminLevel,
		Permissions: []string{Wildcard},
	}
}
