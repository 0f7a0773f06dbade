// package basesvc cung cấp repository và service vòng đời dùng chung cho các thực thể quản trị
package basesvc

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	basemodels "admin_backoffice/internal/api/base/models"
)

// Entity là các phương thức mọi thực thể quản trị phải có (trên con trỏ)
type Entity interface {
	GetID() primitive.ObjectID
	SetID(id primitive.ObjectID)
	GetMetadata() *basemodels.Metadata
}

// EntityPtr ràng buộc *T là một Entity
type EntityPtr[T any] interface {
	*T
	Entity
}

// Repository là các thao tác lưu trữ mà service vòng đời cần.
// Mọi thao tác dùng ctx đã gắn transaction scope (nếu có).
type Repository[T any] interface {
	// FindOneById tìm theo _id và trạng thái xóa mềm, trả về common.ErrNotFound nếu không có
	FindOneById(ctx context.Context, id primitive.ObjectID, state basemodels.DeletionState, projection []string) (*T, error)
	// ExistsActive kiểm tra có document chưa xóa (khác excludeID) khớp mọi điều kiện bằng trong filter
	ExistsActive(ctx context.Context, filter map[string]interface{}, excludeID primitive.ObjectID) (bool, error)
	InsertOne(ctx context.Context, doc *T) error
	ReplaceOneById(ctx context.Context, id primitive.ObjectID, doc *T) error
	FindWithPagination(ctx context.Context, query basemodels.ListQuery) (*basemodels.PaginateResult[T], error)
}
