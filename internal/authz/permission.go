package authz

import (
	"github.com/samber/lo"

	"admin_backoffice/internal/common"
)

// Wildcard cho phép mọi permission
const Wildcard = "*"

// Permission dùng cho các route quản trị
const (
	PermRolesRead       = "roles:read"
	PermRolesCreate     = "roles:create"
	PermRolesUpdate     = "roles:update"
	PermRolesDelete     = "roles:delete"
	PermRolesRestore    = "roles:restore"
	PermAccountsRead    = "accounts:read"
	PermAccountsCreate  = "accounts:create"
	PermAccountsUpdate  = "accounts:update"
	PermAccountsDelete  = "accounts:delete"
	PermAccountsRestore = "accounts:restore"
)

// AllPermissions liệt kê các permission hệ thống biết
var AllPermissions = []string{
	PermRolesRead, PermRolesCreate, PermRolesUpdate, PermRolesDelete, PermRolesRestore,
	PermAccountsRead, PermAccountsCreate, PermAccountsUpdate, PermAccountsDelete, PermAccountsRestore,
}

// HasAll trả về true nếu tập permission chứa Wildcard hoặc chứa đủ mọi permission yêu cầu
func HasAll(granted []string, required ...string) bool {
	if lo.Contains(granted, Wildcard) {
		return true
	}
	return lo.Every(granted, required)
}

// Authorize kiểm tra actor có đủ permission yêu cầu.
// Không có actor thì trả về ErrUnauthenticated, thiếu permission thì ErrMissingPermission.
func Authorize(actor *Actor, required ...string) error {
	if actor == nil {
		return common.ErrUnauthenticated
	}
	if !HasAll(actor.Permissions, required...) {
		return common.ErrMissingPermission.WithDetails(missingDetails(actor.Permissions, required))
	}
	return nil
}

// missingDetails liệt kê các permission còn thiếu
func missingDetails(granted, required []string) map[string]interface{} {
	missing, _ := lo.Difference(required, granted)
	return map[string]interface{}{"missing": missing}
}
