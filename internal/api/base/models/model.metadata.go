package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trạng thái vòng đời lưu trong metadata.status
const (
	StatusActive  = "active"
	StatusDeleted = "deleted"
)

// CurrentDocumentVersion là phiên bản schema của document
const CurrentDocumentVersion = 1

// UpdateHistoryEntry là một lần thay đổi, chỉ chứa các field thực sự thay đổi
type UpdateHistoryEntry struct {
	UpdatedAt int64                  `json:"updatedAt" bson:"updatedAt"`
	UpdatedBy primitive.ObjectID     `json:"updatedBy" bson:"updatedBy"`
	Changes   map[string]interface{} `json:"changes" bson:"changes"`
}

// Metadata được nhúng trong mọi thực thể quản trị
type Metadata struct {
	DocumentVersion int                  `json:"documentVersion" bson:"documentVersion"`
	CreatedAt       int64                `json:"createdAt" bson:"createdAt"`
	CreatedBy       *primitive.ObjectID  `json:"createdBy" bson:"createdBy"`
	UpdatedAt       *int64               `json:"updatedAt" bson:"updatedAt"`
	UpdatedBy       *primitive.ObjectID  `json:"updatedBy" bson:"updatedBy"`
	UpdateHistory   []UpdateHistoryEntry `json:"updateHistory" bson:"updateHistory"`
	Deleted         bool                 `json:"deleted" bson:"deleted" index:"single:1"`
	DeletedAt       *int64               `json:"deletedAt" bson:"deletedAt"`
	DeletedBy       *primitive.ObjectID  `json:"deletedBy" bson:"deletedBy"`
	Status          string               `json:"status" bson:"status"`
}

// NewMetadata tạo metadata cho thực thể mới
func NewMetadata(now int64, createdBy *primitive.ObjectID) Metadata {
	return Metadata{
		DocumentVersion: CurrentDocumentVersion,
		CreatedAt:       now,
		CreatedBy:       createdBy,
		UpdateHistory:   []UpdateHistoryEntry{},
		Deleted:         false,
		Status:          StatusActive,
	}
}

// Touch ghi nhận một lần thay đổi và thêm một entry vào lịch sử
func (m *Metadata) Touch(now int64, by primitive.ObjectID, changes map[string]interface{}) {
	m.UpdatedAt = &now
	m.UpdatedBy = &by
	m.UpdateHistory = append(m.UpdateHistory, UpdateHistoryEntry{
		UpdatedAt: now,
		UpdatedBy: by,
		Changes:   changes,
	})
}

// MarkDeleted chuyển metadata sang trạng thái đã xóa
func (m *Metadata) MarkDeleted(now int64, by primitive.ObjectID) {
	m.Deleted = true
	m.DeletedAt = &now
	m.DeletedBy = &by
	m.Status = StatusDeleted
}

// ClearDeleted đưa metadata về trạng thái hoạt động
func (m *Metadata) ClearDeleted() {
	m.Deleted = false
	m.DeletedAt = nil
	m.DeletedBy = nil
	m.Status = StatusActive
}
