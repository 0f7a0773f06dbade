package database

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"admin_backoffice/internal/logger"
)

// ActiveFilter là partial filter cho index chỉ áp dụng với document chưa bị xóa mềm
var ActiveFilter = bson.D{{Key: "metadata.deleted", Value: false}}

// IndexSpec là một index được đọc từ struct tag `index`
type IndexSpec struct {
	Field  string
	Order  int
	Unique bool
	Sparse bool
	Active bool
}

// Name trả về tên index theo quy ước <field>_unique / <field>_single
func (s IndexSpec) Name() string {
	if s.Unique {
		return s.Field + "_unique"
	}
	return s.Field + "_single"
}

// parseIndexTag phân tích tag index, ví dụ: `index:"unique,active"` hoặc `index:"single:-1"`
func parseIndexTag(tag string) map[string]string {
	entry := map[string]string{}
	for _, part := range strings.Split(tag, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(kv) == 2 {
			entry[kv[0]] = kv[1]
		} else {
			entry[kv[0]] = ""
		}
	}
	return entry
}

// CollectIndexes đọc index từ struct tag, duyệt cả struct lồng nhau với tiền tố bson
func CollectIndexes(model interface{}) []IndexSpec {
	t := reflect.TypeOf(model)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return collectIndexes(t, "")
}

func collectIndexes(t reflect.Type, prefix string) []IndexSpec {
	var specs []IndexSpec
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		bsonName := strings.Split(field.Tag.Get("bson"), ",")[0]
		if bsonName == "" || bsonName == "-" {
			continue
		}
		path := bsonName
		if prefix != "" {
			path = prefix + "." + bsonName
		}

		if tag := field.Tag.Get("index"); tag != "" {
			cfg := parseIndexTag(tag)
			spec := IndexSpec{Field: path, Order: 1}
			if order, ok := cfg["single"]; ok && order != "" {
				if n, err := strconv.Atoi(order); err == nil && (n == 1 || n == -1) {
					spec.Order = n
				}
			}
			_, spec.Unique = cfg["unique"]
			_, spec.Sparse = cfg["sparse"]
			_, spec.Active = cfg["active"]
			specs = append(specs, spec)
		}

		ft := field.Type
		for ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && ft.PkgPath() != "time" && ft.Name() != "ObjectID" {
			specs = append(specs, collectIndexes(ft, path)...)
		}
	}
	return specs
}

// indexModel tạo mongo.IndexModel từ IndexSpec
func (s IndexSpec) indexModel() mongo.IndexModel {
	opts := options.Index().SetName(s.Name())
	if s.Unique {
		opts.SetUnique(true)
	}
	if s.Sparse {
		opts.SetSparse(true)
	}
	if s.Active {
		opts.SetPartialFilterExpression(ActiveFilter)
	}
	return mongo.IndexModel{
		Keys:    bson.D{{Key: s.Field, Value: s.Order}},
		Options: opts,
	}
}

// CreateIndexes tạo index cho collection theo struct tag của model.
// Index cùng tên nhưng khác options sẽ bị xóa và tạo lại.
func CreateIndexes(ctx context.Context, collection *mongo.Collection, model interface{}) error {
	for _, spec := range CollectIndexes(model) {
		im := spec.indexModel()
		_, err := collection.Indexes().CreateOne(ctx, im)
		if err == nil {
			continue
		}
		if !isIndexConflict(err) {
			return fmt.Errorf("failed to create index %s: %w", spec.Name(), err)
		}

		logger.GetAppLogger().WithFields(map[string]interface{}{
			"collection": collection.Name(),
			"index":      spec.Name(),
		}).Warn("Index khác cấu hình, tạo lại")

		if _, err := collection.Indexes().DropOne(ctx, spec.Name()); err != nil {
			return fmt.Errorf("failed to drop index %s: %w", spec.Name(), err)
		}
		if _, err := collection.Indexes().CreateOne(ctx, im); err != nil {
			return fmt.Errorf("failed to recreate index %s: %w", spec.Name(), err)
		}
	}
	return nil
}

// isIndexConflict: IndexOptionsConflict (85) hoặc IndexKeySpecsConflict (86)
func isIndexConflict(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == 85 || cmdErr.Code == 86
	}
	return false
}
