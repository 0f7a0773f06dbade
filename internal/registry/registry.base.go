// Package registry cung cấp registry generic, thread-safe để quản lý các instance dùng chung
// (collection, health check, ...) theo tên.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"

	"admin_backoffice/internal/common"
)

// Registry là registry generic, thread-safe.
//
// Example:
//
//	collections := NewRegistry[*mongo.Collection]()
//	collections.Register("accounts", db.Collection("accounts"))
//	if col, ok := collections.Get("accounts"); ok {
//	    ...
//	}
type Registry[T any] struct {
	items map[string]T
	mu    sync.RWMutex
}

// NewRegistry tạo registry rỗng
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		items: make(map[string]T),
	}
}

// ====================================
// CÁC PHƯƠNG THỨC CỦA REGISTRY
// ====================================

// Register đăng ký item theo tên, ghi đè nếu đã tồn tại.
// isNew = false khi ghi đè item cũ.
func (r *Registry[T]) Register(name string, item T) (isNew bool, err error) {
	if name == "" {
		return false, fmt.Errorf("name cannot be empty: %w", common.ErrRequiredField)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.items[name]
	r.items[name] = item
	return !exists, nil
}

// Get lấy item theo tên
func (r *Registry[T]) Get(name string) (item T, exists bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, exists = r.items[name]
	return item, exists
}

// MustGet lấy item theo tên, panic nếu chưa đăng ký.
// Chỉ dùng lúc khởi tạo ứng dụng.
func (r *Registry[T]) MustGet(name string) T {
	item, ok := r.Get(name)
	if !ok {
		panic(fmt.Sprintf("registry: %q chưa được đăng ký", name))
	}
	return item
}

// GetOrCreate lấy item theo tên, chưa có thì tạo qua creator và đăng ký
func (r *Registry[T]) GetOrCreate(name string, creator func() (T, error)) (T, error) {
	if item, ok := r.Get(name); ok {
		return item, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if item, ok := r.items[name]; ok {
		return item, nil
	}
	item, err := creator()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to create item %s: %w", name, err)
	}
	r.items[name] = item
	return item, nil
}

// Names trả về danh sách tên đã đăng ký, sắp xếp tăng dần
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := lo.Keys(r.items)
	sort.Strings(names)
	return names
}

// Each duyệt các item theo thứ tự tên, dừng ở lỗi đầu tiên
func (r *Registry[T]) Each(fn func(name string, item T) error) error {
	for _, name := range r.Names() {
		item, ok := r.Get(name)
		if !ok {
			continue
		}
		if err := fn(name, item); err != nil {
			return err
		}
	}
	return nil
}

// Clear xóa toàn bộ item, gọi cleanup (nếu có) cho từng item trước khi xóa
func (r *Registry[T]) Clear(cleanup func(name string, item T)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cleanup != nil {
		for name, item := range r.items {
			cleanup(name, item)
		}
	}
	r.items = make(map[string]T)
}
