package authdto

import (
	"admin_backoffice/internal/utility"
)

// AccountRoleCreateInput dùng cho tạo vai trò.
// Level không giới hạn ở đây: cấp bậc không hợp lệ bị từ chối bởi kiểm tra phân cấp.
type AccountRoleCreateInput struct {
	Name              string   `json:"name" validate:"required,max=100,no_xss"`
	Description       string   `json:"description" validate:"max=500,no_xss"`
	Level             *int     `json:"level" validate:"required"`
	Permissions       []string `json:"permissions" validate:"dive,permission"`
	RequiresTwoFactor bool     `json:"requiresTwoFactor"`
}

// AccountRoleUpdateInput dùng cho cập nhật từng phần vai trò.
// Field không gửi giữ nguyên, gửi null để xóa giá trị (chỉ với description).
type AccountRoleUpdateInput struct {
	Name              utility.Optional[string]   `json:"name" validate:"omitempty,max=100,no_xss"`
	Description       utility.Optional[string]   `json:"description" validate:"omitempty,max=500,no_xss"`
	Level             utility.Optional[int]      `json:"level"`
	Permissions       utility.Optional[[]string] `json:"permissions"`
	RequiresTwoFactor utility.Optional[bool]     `json:"requiresTwoFactor"`
}
