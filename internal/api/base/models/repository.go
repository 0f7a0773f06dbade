// Package models chứa các kiểu dùng chung cho layer repository/base (kết quả phân trang, truy vấn, metadata).
package models

import "math"

// PaginateResult đại diện cho kết quả phân trang
type PaginateResult[T any] struct {
	// Trang hiện tại
	Page int64 `json:"page" bson:"page"`
	// Số lượng mục trên mỗi trang
	Limit int64 `json:"limit" bson:"limit"`
	// Số lượng mục trong trang hiện tại
	ItemCount int64 `json:"itemCount" bson:"itemCount"`
	// Danh sách các mục
	Items []T `json:"items" bson:"items"`
	// Tổng số mục
	Total int64 `json:"total" bson:"total"`
	// Tổng số trang
	TotalPage int64 `json:"totalPage" bson:"totalPage"`
}

// NewPaginateResult tạo kết quả phân trang từ danh sách trang hiện tại và tổng số mục
func NewPaginateResult[T any](items []T, page, limit, total int64) *PaginateResult[T] {
	if items == nil {
		items = []T{}
	}
	totalPage := int64(0)
	if limit > 0 {
		totalPage = (total + limit - 1) / limit
	}
	return &PaginateResult[T]{
		Page:      page,
		Limit:     limit,
		ItemCount: int64(len(items)),
		Items:     items,
		Total:     total,
		TotalPage: totalPage,
	}
}

// DeletionState chọn document theo trạng thái xóa mềm
type DeletionState int

const (
	// OnlyActive chỉ lấy document chưa bị xóa
	OnlyActive DeletionState = iota
	// OnlyDeleted chỉ lấy document có metadata.deleted == true
	OnlyDeleted
	// AnyState lấy mọi document
	AnyState
)

// ListQuery là truy vấn danh sách đã được service chuẩn hóa
type ListQuery struct {
	Projection     []string               // Các field cần trả về (rỗng = tất cả)
	Search         string                 // Chuỗi tìm kiếm (đã được escape)
	SearchFields   []string               // Các field được phép tìm kiếm
	Filter         map[string]interface{} // Điều kiện bằng theo field
	Page           int64                  // Trang, bắt đầu từ 1
	Limit          int64                  // Số mục mỗi trang
	IncludeDeleted bool                   // Lấy cả document đã xóa mềm
}

// Skip trả về số document bỏ qua.
// Trang quá lớn được chặn ở math.MaxInt64 (trang rỗng) thay vì tràn số.
func (q ListQuery) Skip() int64 {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt64/q.Limit {
		return math.MaxInt64
	}
	return (q.Page - 1) * q.Limit
}
