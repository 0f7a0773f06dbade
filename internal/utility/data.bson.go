package utility

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToMap chuyển struct (hoặc map) thành bson.M thông qua một vòng marshal/unmarshal bson,
// nhờ vậy tên field và kiểu giá trị giống hệt dữ liệu lưu trong MongoDB
func ToMap(s interface{}) (bson.M, error) {
	data, err := bson.Marshal(s)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// FromMap decode bson.M vào out (con trỏ tới struct)
func FromMap(m bson.M, out interface{}) error {
	data, err := bson.Marshal(m)
	if err != nil {
		return err
	}
	return bson.Unmarshal(data, out)
}

// NormalizeValue đưa một giá trị Go về đúng kiểu mà nó có sau khi lưu và đọc lại từ bson
func NormalizeValue(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	m, err := ToMap(bson.M{"v": v})
	if err != nil {
		return nil, err
	}
	return m["v"], nil
}

// GetPath đọc giá trị theo đường dẫn có dấu chấm (ví dụ "email.value")
func GetPath(doc interface{}, path string) (interface{}, bool) {
	current := doc
	for _, key := range strings.Split(path, ".") {
		switch node := current.(type) {
		case bson.M:
			v, ok := node[key]
			if !ok {
				return nil, false
			}
			current = v
		case map[string]interface{}:
			v, ok := node[key]
			if !ok {
				return nil, false
			}
			current = v
		case primitive.D:
			found := false
			for _, e := range node {
				if e.Key == key {
					current = e.Value
					found = true
					break
				}
			}
			if !found {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return current, true
}

// SetPath gán giá trị theo đường dẫn có dấu chấm, tạo các document trung gian nếu thiếu
func SetPath(doc bson.M, path string, value interface{}) {
	keys := strings.Split(path, ".")
	current := doc
	for _, key := range keys[:len(keys)-1] {
		next, ok := asMap(current[key])
		if !ok {
			next = bson.M{}
		}
		current[key] = next
		current = next
	}
	current[keys[len(keys)-1]] = value
}

// asMap chuyển node về bson.M nếu có thể
func asMap(v interface{}) (bson.M, bool) {
	switch node := v.(type) {
	case bson.M:
		return node, true
	case map[string]interface{}:
		return bson.M(node), true
	case primitive.D:
		return node.Map(), true
	}
	return nil, false
}

// Project giữ lại các field theo danh sách đường dẫn (luôn giữ _id)
func Project(doc bson.M, fields []string) bson.M {
	if len(fields) == 0 {
		return doc
	}
	out := bson.M{}
	if id, ok := doc["_id"]; ok {
		out["_id"] = id
	}
	for _, field := range fields {
		if v, ok := GetPath(doc, field); ok {
			SetPath(out, field, v)
		}
	}
	return out
}
