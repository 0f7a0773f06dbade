package utility

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// Optional phân biệt ba trạng thái của một field trong JSON cập nhật từng phần:
// không gửi (Set=false), gửi null (Set=true, Null=true) và gửi giá trị.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some tạo Optional có giá trị
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Null tạo Optional mang giá trị null
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON chỉ được gọi khi key có mặt trong JSON
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON ghi null khi không có giá trị
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// HasValue trả về true nếu field được gửi với giá trị khác null
func (o Optional[T]) HasValue() bool {
	return o.Set && !o.Null
}

// ValidatorValue trả về giá trị để validator kiểm tra (nil nếu không có giá trị)
func (o Optional[T]) ValidatorValue() interface{} {
	if !o.HasValue() {
		return nil
	}
	return o.Value
}

// OptionalValuer được dùng khi đăng ký custom type func cho validator
type OptionalValuer interface {
	ValidatorValue() interface{}
}

// OptionalTypeFunc là custom type func cho validator: trả về giá trị bên trong Optional
func OptionalTypeFunc(field reflect.Value) interface{} {
	if v, ok := field.Interface().(OptionalValuer); ok {
		return v.ValidatorValue()
	}
	return nil
}
