package basesvc

import (
	"context"
	"regexp"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	basemodels "admin_backoffice/internal/api/base/models"
	"admin_backoffice/internal/common"
)

// BaseServiceMongoImpl là Repository dựa trên một collection MongoDB
type BaseServiceMongoImpl[T any] struct {
	collection *mongo.Collection
}

// NewBaseServiceMongo tạo mới BaseServiceMongoImpl
func NewBaseServiceMongo[T any](collection *mongo.Collection) *BaseServiceMongoImpl[T] {
	return &BaseServiceMongoImpl[T]{collection: collection}
}

// Collection trả về collection đang dùng
func (s *BaseServiceMongoImpl[T]) Collection() *mongo.Collection {
	return s.collection
}

// deletionFilter trả về điều kiện theo trạng thái xóa mềm
func deletionFilter(state basemodels.DeletionState) bson.M {
	switch state {
	case basemodels.OnlyActive:
		return bson.M{"metadata.deleted": bson.M{"$ne": true}}
	case basemodels.OnlyDeleted:
		return bson.M{"metadata.deleted": true}
	default:
		return bson.M{}
	}
}

// projectionDoc tạo projection {field: 1}
func projectionDoc(fields []string) bson.M {
	if len(fields) == 0 {
		return nil
	}
	return lo.SliceToMap(fields, func(f string) (string, interface{}) {
		return f, 1
	})
}

// FindOneById tìm document theo ID
func (s *BaseServiceMongoImpl[T]) FindOneById(ctx context.Context, id primitive.ObjectID, state basemodels.DeletionState, projection []string) (*T, error) {
	filter := deletionFilter(state)
	filter["_id"] = id

	opts := options.FindOne()
	if p := projectionDoc(projection); p != nil {
		opts.SetProjection(p)
	}

	var doc T
	if err := s.collection.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return &doc, nil
}

// ExistsActive kiểm tra document chưa xóa khớp filter
func (s *BaseServiceMongoImpl[T]) ExistsActive(ctx context.Context, filter map[string]interface{}, excludeID primitive.ObjectID) (bool, error) {
	query := deletionFilter(basemodels.OnlyActive)
	for k, v := range filter {
		query[k] = v
	}
	if !excludeID.IsZero() {
		query["_id"] = bson.M{"$ne": excludeID}
	}

	count, err := s.collection.CountDocuments(ctx, query, options.Count().SetLimit(1))
	if err != nil {
		return false, common.ConvertMongoError(err)
	}
	return count > 0, nil
}

// InsertOne chèn document mới
func (s *BaseServiceMongoImpl[T]) InsertOne(ctx context.Context, doc *T) error {
	_, err := s.collection.InsertOne(ctx, doc)
	return common.ConvertMongoError(err)
}

// ReplaceOneById thay thế toàn bộ document
func (s *BaseServiceMongoImpl[T]) ReplaceOneById(ctx context.Context, id primitive.ObjectID, doc *T) error {
	result, err := s.collection.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return common.ConvertMongoError(err)
	}
	if result.MatchedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

// buildListFilter tạo filter cho truy vấn danh sách
func buildListFilter(query basemodels.ListQuery) bson.M {
	state := basemodels.OnlyActive
	if query.IncludeDeleted {
		state = basemodels.AnyState
	}
	filter := deletionFilter(state)
	for k, v := range query.Filter {
		filter[k] = v
	}
	if query.Search != "" && len(query.SearchFields) > 0 {
		filter["$or"] = lo.Map(query.SearchFields, func(field string, _ int) bson.M {
			return bson.M{field: primitive.Regex{Pattern: regexp.QuoteMeta(query.Search), Options: "i"}}
		})
	}
	return filter
}

// FindWithPagination tìm document với phân trang, trả kèm tổng số
func (s *BaseServiceMongoImpl[T]) FindWithPagination(ctx context.Context, query basemodels.ListQuery) (*basemodels.PaginateResult[T], error) {
	filter := buildListFilter(query)

	total, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}

	opts := options.Find().
		SetSkip(query.Skip()).
		SetLimit(query.Limit).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	if p := projectionDoc(query.Projection); p != nil {
		opts.SetProjection(p)
	}

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	var items []T
	if err = cursor.All(ctx, &items); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return basemodels.NewPaginateResult(items, query.Page, query.Limit, total), nil
}
