package basesvc

import (
	"context"
	"regexp"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basemodels "admin_backoffice/internal/api/base/models"
	"admin_backoffice/internal/common"
	"admin_backoffice/internal/database/memstore"
	"admin_backoffice/internal/utility"
)

// BaseServiceMemoryImpl là Repository dựa trên memstore, cùng ngữ nghĩa với BaseServiceMongoImpl
type BaseServiceMemoryImpl[T any, PT EntityPtr[T]] struct {
	collection *memstore.Collection
}

// NewBaseServiceMemory tạo mới BaseServiceMemoryImpl
func NewBaseServiceMemory[T any, PT EntityPtr[T]](collection *memstore.Collection) *BaseServiceMemoryImpl[T, PT] {
	return &BaseServiceMemoryImpl[T, PT]{collection: collection}
}

// statePredicate trả về predicate theo trạng thái xóa mềm
func statePredicate(state basemodels.DeletionState) memstore.Predicate {
	switch state {
	case basemodels.OnlyActive:
		return memstore.Not(memstore.IsTrue("metadata.deleted"))
	case basemodels.OnlyDeleted:
		return memstore.IsTrue("metadata.deleted")
	default:
		return nil
	}
}

// equalityPredicates chuyển filter bằng thành danh sách predicate
func equalityPredicates(filter map[string]interface{}) []memstore.Predicate {
	return lo.MapToSlice(filter, func(field string, value interface{}) memstore.Predicate {
		return memstore.Eq(field, value)
	})
}

// decode chuyển bson.Raw thành T, áp dụng projection nếu có
func decode[T any](raw bson.Raw, projection []string) (*T, error) {
	var doc T
	if len(projection) == 0 {
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		return &doc, nil
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if err := utility.FromMap(utility.Project(m, projection), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindOneById tìm document theo ID
func (s *BaseServiceMemoryImpl[T, PT]) FindOneById(ctx context.Context, id primitive.ObjectID, state basemodels.DeletionState, projection []string) (*T, error) {
	docs, err := s.collection.Find(ctx, memstore.And(memstore.Eq("_id", id), statePredicate(state)))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, common.ErrNotFound
	}
	return decode[T](docs[0], projection)
}

// ExistsActive kiểm tra document chưa xóa khớp filter
func (s *BaseServiceMemoryImpl[T, PT]) ExistsActive(ctx context.Context, filter map[string]interface{}, excludeID primitive.ObjectID) (bool, error) {
	preds := append(equalityPredicates(filter), statePredicate(basemodels.OnlyActive))
	if !excludeID.IsZero() {
		preds = append(preds, memstore.NotID(excludeID))
	}
	count, err := s.collection.Count(ctx, memstore.And(preds...))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertOne chèn document mới
func (s *BaseServiceMemoryImpl[T, PT]) InsertOne(ctx context.Context, doc *T) error {
	return s.collection.Insert(ctx, PT(doc).GetID(), doc)
}

// ReplaceOneById thay thế toàn bộ document
func (s *BaseServiceMemoryImpl[T, PT]) ReplaceOneById(ctx context.Context, id primitive.ObjectID, doc *T) error {
	return s.collection.Replace(ctx, id, doc)
}

// FindWithPagination tìm document với phân trang, trả kèm tổng số
func (s *BaseServiceMemoryImpl[T, PT]) FindWithPagination(ctx context.Context, query basemodels.ListQuery) (*basemodels.PaginateResult[T], error) {
	state := basemodels.OnlyActive
	if query.IncludeDeleted {
		state = basemodels.AnyState
	}
	preds := append(equalityPredicates(query.Filter), statePredicate(state))
	if query.Search != "" && len(query.SearchFields) > 0 {
		re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(query.Search))
		preds = append(preds, memstore.MatchAny(re, query.SearchFields...))
	}

	docs, err := s.collection.Find(ctx, memstore.And(preds...))
	if err != nil {
		return nil, err
	}
	total := int64(len(docs))

	skip := query.Skip()
	if skip > total {
		skip = total
	}
	end := total
	if query.Limit > 0 && skip+query.Limit < total {
		end = skip + query.Limit
	}

	items := make([]T, 0, end-skip)
	for _, raw := range docs[skip:end] {
		doc, err := decode[T](raw, query.Projection)
		if err != nil {
			return nil, err
		}
		items = append(items, *doc)
	}
	return basemodels.NewPaginateResult(items, query.Page, query.Limit, total), nil
}
