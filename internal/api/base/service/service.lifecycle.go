package basesvc

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	basemodels "admin_backoffice/internal/api/base/models"
	"admin_backoffice/internal/authz"
	"admin_backoffice/internal/common"
	"admin_backoffice/internal/database"
	"admin_backoffice/internal/logger"
	"admin_backoffice/internal/metrics"
	"admin_backoffice/internal/utility"
)

// Giới hạn phân trang
const (
	DefaultPageLimit int64 = 10
	MaxPageLimit     int64 = 100
)

// DeleteOptions là tùy chọn khi xóa
type DeleteOptions struct {
	// AllowDeleteSelf cho phép tài khoản tự xóa chính mình
	AllowDeleteSelf bool
}

// LifecycleService quản lý vòng đời của một loại thực thể:
// tạo, cập nhật từng phần, xóa mềm, khôi phục và truy vấn.
// Mọi thao tác ghi chạy trong TransactionRunner; mọi kết quả được ghi audit.
type LifecycleService[T any, PT EntityPtr[T]] struct {
	repo    Repository[T]
	runner  *database.TransactionRunner
	policy  Policy[T]
	audit   *logger.AuditLogger
	metrics *metrics.Metrics
	now     func() int64
}

// NewLifecycleService tạo mới LifecycleService
func NewLifecycleService[T any, PT EntityPtr[T]](repo Repository[T], runner *database.TransactionRunner, policy Policy[T], audit *logger.AuditLogger, m *metrics.Metrics) *LifecycleService[T, PT] {
	return &LifecycleService[T, PT]{
		repo:    repo,
		runner:  runner,
		policy:  policy,
		audit:   audit,
		metrics: m,
		now:     utility.CurrentTimeInMilli,
	}
}

// Repository trả về repository bên dưới
func (s *LifecycleService[T, PT]) Repository() Repository[T] {
	return s.repo
}

// Runner trả về TransactionRunner đang dùng
func (s *LifecycleService[T, PT]) Runner() *database.TransactionRunner {
	return s.runner
}

// ====================================
// CREATE
// ====================================

// Create tạo thực thể mới từ input (input không bị thay đổi)
func (s *LifecycleService[T, PT]) Create(ctx context.Context, actor *authz.Actor, input *T, scope database.Scope) (*T, error) {
	id := primitive.NewObjectID()
	return runAudited(ctx, s, "create", actor, id, func() (*T, error) {
		return database.RunValue(ctx, s.runner, scope, func(ctx context.Context, _ database.Scope) (*T, error) {
			doc := *input
			PT(&doc).SetID(id)

			if s.policy.Validate != nil {
				if err := s.policy.Validate(ctx, nil, &doc); err != nil {
					return nil, err
				}
			}
			if err := s.checkAssign(ctx, actor, &doc); err != nil {
				return nil, err
			}
			if err := s.checkUnique(ctx, &doc, nil, primitive.NilObjectID); err != nil {
				return nil, err
			}

			*PT(&doc).GetMetadata() = basemodels.NewMetadata(s.now(), &actor.ID)
			if err := s.repo.InsertOne(ctx, &doc); err != nil {
				return nil, err
			}
			return &doc, nil
		})
	})
}

// ====================================
// UPDATE
// ====================================

// Update áp dụng patch lên thực thể chưa xóa và ghi đúng một entry lịch sử.
// Patch không thay đổi gì thì không ghi.
func (s *LifecycleService[T, PT]) Update(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, patch *Patch, scope database.Scope) (*T, error) {
	return runAudited(ctx, s, "update", actor, id, func() (*T, error) {
		return database.RunValue(ctx, s.runner, scope, func(ctx context.Context, _ database.Scope) (*T, error) {
			before, err := s.repo.FindOneById(ctx, id, basemodels.OnlyActive, nil)
			if err != nil {
				return nil, err
			}

			self := id == actor.ID
			beforeLevel, err := s.targetLevel(ctx, before)
			if err != nil {
				return nil, err
			}
			if !self && !authz.CanActOn(actor.RoleLevel, beforeLevel) {
				return nil, common.ErrLevelTooHigh
			}

			after, changes, err := applyPatch(before, patch, s.policy.rules())
			if err != nil {
				return nil, err
			}
			if len(changes) == 0 {
				return before, nil
			}

			now := s.now()
			if s.policy.OnUpdate != nil {
				for k, v := range s.policy.OnUpdate(before, after, changes, now) {
					changes[k] = v
				}
			}
			if s.policy.Validate != nil {
				if err := s.policy.Validate(ctx, before, after); err != nil {
					return nil, err
				}
			}
			afterLevel, err := s.targetLevel(ctx, after)
			if err != nil {
				return nil, err
			}
			if (!self || afterLevel != beforeLevel) && !authz.CanAssignLevel(actor.RoleLevel, afterLevel) {
				return nil, common.ErrLevelTooHigh
			}
			if err := s.checkUnique(ctx, after, before, id); err != nil {
				return nil, err
			}

			PT(after).GetMetadata().Touch(now, actor.ID, changes)
			if err := s.repo.ReplaceOneById(ctx, id, after); err != nil {
				return nil, err
			}
			return after, nil
		})
	})
}

// ====================================
// DELETE / RESTORE
// ====================================

// Delete xóa mềm thực thể
func (s *LifecycleService[T, PT]) Delete(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, opts DeleteOptions, scope database.Scope) (*T, error) {
	return runAudited(ctx, s, "delete", actor, id, func() (*T, error) {
		return database.RunValue(ctx, s.runner, scope, func(ctx context.Context, _ database.Scope) (*T, error) {
			doc, err := s.repo.FindOneById(ctx, id, basemodels.OnlyActive, nil)
			if err != nil {
				return nil, err
			}

			self := id == actor.ID
			if self && !opts.AllowDeleteSelf {
				return nil, common.ErrCannotDeleteSelf
			}
			if !self {
				level, err := s.targetLevel(ctx, doc)
				if err != nil {
					return nil, err
				}
				if !authz.CanActOn(actor.RoleLevel, level) {
					return nil, common.ErrCannotDeleteDueToRoleLevel
				}
			}
			if s.policy.GuardDelete != nil {
				if err := s.policy.GuardDelete(ctx, doc); err != nil {
					return nil, err
				}
			}

			now := s.now()
			changes := map[string]interface{}{}
			if s.policy.OnDelete != nil {
				for k, v := range s.policy.OnDelete(doc, now) {
					changes[k] = v
				}
			}
			meta := PT(doc).GetMetadata()
			meta.MarkDeleted(now, actor.ID)
			changes["metadata.deleted"] = true
			changes["metadata.status"] = basemodels.StatusDeleted
			meta.Touch(now, actor.ID, changes)

			if err := s.repo.ReplaceOneById(ctx, id, doc); err != nil {
				return nil, err
			}
			return doc, nil
		})
	})
}

// Restore khôi phục thực thể đã xóa mềm
func (s *LifecycleService[T, PT]) Restore(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, scope database.Scope) (*T, error) {
	return runAudited(ctx, s, "restore", actor, id, func() (*T, error) {
		return database.RunValue(ctx, s.runner, scope, func(ctx context.Context, _ database.Scope) (*T, error) {
			doc, err := s.repo.FindOneById(ctx, id, basemodels.OnlyDeleted, nil)
			if err != nil {
				return nil, err
			}

			level, err := s.targetLevel(ctx, doc)
			if err != nil {
				return nil, err
			}
			if !authz.CanActOn(actor.RoleLevel, level) {
				return nil, common.ErrLevelTooHigh
			}
			if err := s.checkUnique(ctx, doc, nil, id); err != nil {
				return nil, err
			}

			now := s.now()
			meta := PT(doc).GetMetadata()
			meta.ClearDeleted()
			meta.Touch(now, actor.ID, map[string]interface{}{
				"metadata.deleted": false,
				"metadata.status":  basemodels.StatusActive,
			})

			if err := s.repo.ReplaceOneById(ctx, id, doc); err != nil {
				return nil, err
			}
			return doc, nil
		})
	})
}

// ====================================
// QUERY
// ====================================

// List trả về danh sách có phân trang
func (s *LifecycleService[T, PT]) List(ctx context.Context, actor *authz.Actor, query basemodels.ListQuery) (*basemodels.PaginateResult[T], error) {
	return runAudited(ctx, s, "list", actor, primitive.NilObjectID, func() (*basemodels.PaginateResult[T], error) {
		return s.repo.FindWithPagination(ctx, s.normalizeQuery(query))
	})
}

// Get trả về một thực thể theo ID
func (s *LifecycleService[T, PT]) Get(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, projection []string, includeDeleted bool) (*T, error) {
	state := basemodels.OnlyActive
	if includeDeleted {
		state = basemodels.AnyState
	}
	return runAudited(ctx, s, "get", actor, id, func() (*T, error) {
		return s.repo.FindOneById(ctx, id, state, projection)
	})
}

// normalizeQuery áp dụng giá trị mặc định và whitelist field tìm kiếm
func (s *LifecycleService[T, PT]) normalizeQuery(query basemodels.ListQuery) basemodels.ListQuery {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = DefaultPageLimit
	}
	if query.Limit > MaxPageLimit {
		query.Limit = MaxPageLimit
	}
	query.Search = strings.TrimSpace(query.Search)
	query.SearchFields = s.policy.SearchableFields
	return query
}

// ====================================
// CHECKS
// ====================================

func (s *LifecycleService[T, PT]) targetLevel(ctx context.Context, doc *T) (int, error) {
	if s.policy.TargetLevel == nil {
		return 0, fmt.Errorf("%s: TargetLevel chưa được cấu hình", s.policy.Kind)
	}
	return s.policy.TargetLevel(ctx, doc)
}

// checkAssign kiểm tra actor được phép gán cấp bậc của doc
func (s *LifecycleService[T, PT]) checkAssign(ctx context.Context, actor *authz.Actor, doc *T) error {
	level, err := s.targetLevel(ctx, doc)
	if err != nil {
		return err
	}
	if !authz.CanAssignLevel(actor.RoleLevel, level) {
		return common.ErrLevelTooHigh
	}
	return nil
}

// checkUnique kiểm tra các unique key; before != nil thì chỉ kiểm tra key đã đổi
func (s *LifecycleService[T, PT]) checkUnique(ctx context.Context, doc, before *T, excludeID primitive.ObjectID) error {
	for _, key := range s.policy.UniqueKeys {
		value := key.Value(doc)
		if before != nil {
			prev, _ := utility.NormalizeValue(key.Value(before))
			next, _ := utility.NormalizeValue(value)
			if reflect.DeepEqual(prev, next) {
				continue
			}
		}
		taken, err := s.repo.ExistsActive(ctx, map[string]interface{}{key.Field: value}, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return key.Conflict
		}
	}
	return nil
}

// ====================================
// AUDIT
// ====================================

// runAudited chạy fn, ghi audit và metrics cho kết quả.
// Lỗi không phải lỗi nghiệp vụ được quy về internal-error sau khi ghi log.
func runAudited[T any, PT EntityPtr[T], R any](ctx context.Context, s *LifecycleService[T, PT], op string, actor *authz.Actor, target primitive.ObjectID, fn func() (R, error)) (result R, err error) {
	start := time.Now()
	source := s.policy.Kind + "." + op

	refs := map[string]string{}
	if !target.IsZero() {
		refs["target"] = target.Hex()
	}
	if actor != nil {
		refs["actor"] = actor.ID.Hex()
	}

	defer func() {
		if r := recover(); r != nil {
			var zero R
			result = zero
			err = common.ErrInternal
			s.record(ctx, source, op, logger.AuditCritical, "panic", start, refs, map[string]interface{}{
				"panic": fmt.Sprint(r),
			})
		}
	}()

	if actor == nil {
		err = common.ErrUnauthenticated
	} else {
		result, err = fn()
	}

	switch {
	case err == nil:
		level := logger.AuditInfo
		if op == "delete" || op == "restore" {
			level = logger.AuditImportant
		}
		s.record(ctx, source, op, level, string(common.TokenSuccess), start, refs, nil)
	case common.IsDomainError(err):
		s.record(ctx, source, op, logger.AuditWarning, string(common.TokenOf(err)), start, refs, map[string]interface{}{
			"token":  string(common.TokenOf(err)),
			"reason": common.ReasonOf(err),
		})
	default:
		s.record(ctx, source, op, logger.AuditError, string(common.TokenInternalError), start, refs, map[string]interface{}{
			"error": err.Error(),
		})
		logger.WithContext(ctx).WithError(err).WithField("source", source).Error("Thao tác thất bại do lỗi hệ thống")
		var zero R
		result = zero
		err = common.Collapse(err)
	}
	return result, err
}

func (s *LifecycleService[T, PT]) record(ctx context.Context, source, op string, level logger.AuditLevel, outcome string, start time.Time, refs map[string]string, details map[string]interface{}) {
	elapsed := time.Since(start)
	s.metrics.ObserveOperation(s.policy.Kind, op, outcome, elapsed.Seconds())
	s.audit.Log(logger.AuditEntry{
		Level:      level,
		Source:     source,
		Message:    fmt.Sprintf("%s %s: %s", s.policy.Kind, op, outcome),
		Details:    details,
		DurationMs: utility.Int64Ptr(elapsed.Milliseconds()),
		TraceID:    logger.TraceIDFromContext(ctx),
		EntityRefs: refs,
	})
}
