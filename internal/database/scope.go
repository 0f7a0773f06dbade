package database

import (
	"context"
)

// Scope là một transaction scope (unit of work) đang mở.
// Chỉ bên tạo ra scope mới được Commit/Abort nó.
type Scope interface {
	// Bind gắn scope vào context để các thao tác đọc/ghi chạy trong scope
	Bind(ctx context.Context) context.Context
	Commit(ctx context.Context) error
	Abort(ctx context.Context) error
	// End giải phóng tài nguyên của scope, tự abort nếu chưa commit
	End(ctx context.Context)
}

// ScopeFactory mở transaction scope mới
type ScopeFactory interface {
	Begin(ctx context.Context) (Scope, error)
}
