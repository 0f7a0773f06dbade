package memstore

import (
	"reflect"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"admin_backoffice/internal/utility"
)

// Equal so sánh hai giá trị bson, các kiểu số khác nhau được so sánh theo giá trị
func Equal(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// normalize đưa giá trị truy vấn về kiểu bson, giữ nguyên nếu không chuyển được
func normalize(v interface{}) interface{} {
	n, err := utility.NormalizeValue(v)
	if err != nil {
		return v
	}
	return n
}

// Eq: field == value
func Eq(field string, value interface{}) Predicate {
	want := normalize(value)
	return func(doc bson.M) bool {
		got, ok := utility.GetPath(doc, field)
		if !ok {
			return want == nil
		}
		return Equal(got, want)
	}
}

// NotID: _id != id
func NotID(id primitive.ObjectID) Predicate {
	return func(doc bson.M) bool {
		got, _ := doc["_id"].(primitive.ObjectID)
		return got != id
	}
}

// IsTrue: field == true
func IsTrue(field string) Predicate {
	return func(doc bson.M) bool {
		v, _ := utility.GetPath(doc, field)
		b, _ := v.(bool)
		return b
	}
}

// Not phủ định pred
func Not(pred Predicate) Predicate {
	return func(doc bson.M) bool {
		return !pred(doc)
	}
}

// And: mọi predicate đều đúng
func And(preds ...Predicate) Predicate {
	return func(doc bson.M) bool {
		for _, p := range preds {
			if p != nil && !p(doc) {
				return false
			}
		}
		return true
	}
}

// MatchAny: ít nhất một field dạng chuỗi khớp re
func MatchAny(re *regexp.Regexp, fields ...string) Predicate {
	return func(doc bson.M) bool {
		for _, field := range fields {
			v, ok := utility.GetPath(doc, field)
			if !ok {
				continue
			}
			if s, ok := v.(string); ok && re.MatchString(s) {
				return true
			}
		}
		return false
	}
}
