package basesvc

import (
	"context"

	"admin_backoffice/internal/common"
)

// UniqueKey là một field (đường dẫn bson) phải duy nhất trong các document chưa xóa.
// Conflict là lỗi trả về khi giá trị đã được dùng.
type UniqueKey[T any] struct {
	Field    string
	Value    func(doc *T) interface{}
	Conflict *common.Error
}

// Policy mô tả các quy tắc riêng của từng loại thực thể
type Policy[T any] struct {
	// Kind là tên loại thực thể, dùng cho audit và metrics
	Kind string

	UniqueKeys       []UniqueKey[T]
	PatchableFields  []string
	NullableFields   []string
	RedactedFields   []string
	SearchableFields []string

	// TargetLevel trả về cấp bậc vai trò của thực thể để kiểm tra phân cấp
	TargetLevel func(ctx context.Context, doc *T) (int, error)

	// Validate kiểm tra thực thể trước khi ghi; before == nil khi tạo mới
	Validate func(ctx context.Context, before, after *T) error

	// OnUpdate bổ sung các field phát sinh khi cập nhật (ví dụ thời điểm đổi email), trả về các field đã đổi
	OnUpdate func(before, after *T, changes map[string]interface{}, now int64) map[string]interface{}

	// GuardDelete chặn việc xóa (ví dụ vai trò còn được tài khoản sử dụng)
	GuardDelete func(ctx context.Context, doc *T) error

	// OnDelete chỉnh sửa thực thể khi xóa mềm, trả về các field đã đổi
	OnDelete func(doc *T, now int64) map[string]interface{}
}

func (p Policy[T]) rules() patchRules {
	return patchRules{
		patchable: p.PatchableFields,
		nullable:  p.NullableFields,
		redacted:  p.RedactedFields,
	}
}
