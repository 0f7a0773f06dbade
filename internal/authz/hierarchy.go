package authz

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SystemAdminLevel là level dành riêng cho vai trò Admin hệ thống, chỉ được tạo khi khởi tạo
const SystemAdminLevel = -1

// CanActOn trả về true nếu actor có level actorLevel được thao tác trên đối tượng có level targetLevel.
// Actor phải có quyền cao hơn hẳn (level nhỏ hơn).
func CanActOn(actorLevel, targetLevel int) bool {
	return targetLevel > actorLevel
}

// CanAssignLevel kiểm tra actor có được gán level cho vai trò hay không.
// Level dành riêng cho Admin hệ thống (và mọi level âm) không bao giờ được gán qua luồng thông thường.
func CanAssignLevel(actorLevel, level int) bool {
	return level > SystemAdminLevel && CanActOn(actorLevel, level)
}

// LevelLookup tra cứu level đã được vai trò chưa xóa nào sử dụng hay chưa
type LevelLookup interface {
	LevelTaken(ctx context.Context, level int, excludingID primitive.ObjectID) (bool, error)
}

// LevelIsAvailable trả về true nếu không có vai trò chưa xóa nào (khác excludingID) giữ level
func LevelIsAvailable(ctx context.Context, lookup LevelLookup, level int, excludingID primitive.ObjectID) (bool, error) {
	taken, err := lookup.LevelTaken(ctx, level, excludingID)
	if err != nil {
		return false, err
	}
	return !taken, nil
}
