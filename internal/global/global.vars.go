// Package global chứa các hằng số và validator dùng chung
package global

import (
	"github.com/go-playground/validator/v10"
)

// Validate là validator dùng chung, được khởi tạo bởi InitValidator
var Validate *validator.Validate

// MongoDB_ColNames tên các collection
var MongoDB_ColNames = struct {
	AccountRoles string
	Accounts     string
	AuditLogs    string
}{
	AccountRoles: "account_roles",
	Accounts:     "accounts",
	AuditLogs:    "audit_logs",
}
