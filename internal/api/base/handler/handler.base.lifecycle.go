package basehdl

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basemodels "admin_backoffice/internal/api/base/models"
	basesvc "admin_backoffice/internal/api/base/service"
	"admin_backoffice/internal/authz"
	"admin_backoffice/internal/database"
	"admin_backoffice/internal/logger"
)

// LifecycleService là tập thao tác vòng đời mà handler generic cần.
// T là entity, C là DTO tạo mới, U là DTO cập nhật.
type LifecycleService[T any, C any, U any] interface {
	CreateFromInput(ctx context.Context, actor *authz.Actor, input *C, scope database.Scope) (*T, error)
	UpdateFromInput(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, input *U, scope database.Scope) (*T, error)
	Delete(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, opts basesvc.DeleteOptions, scope database.Scope) (*T, error)
	Restore(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, scope database.Scope) (*T, error)
	List(ctx context.Context, actor *authz.Actor, query basemodels.ListQuery) (*basemodels.PaginateResult[T], error)
	Get(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, projection []string, includeDeleted bool) (*T, error)
}

// LifecycleHandler cung cấp 6 handler CRUD + restore cho một loại entity
type LifecycleHandler[T any, C any, U any] struct {
	Service LifecycleService[T, C, U]
}

// NewLifecycleHandler tạo mới LifecycleHandler
func NewLifecycleHandler[T any, C any, U any](service LifecycleService[T, C, U]) *LifecycleHandler[T, C, U] {
	return &LifecycleHandler[T, C, U]{Service: service}
}

// HandleList xử lý GET / với fields, search, page, count, includeDeleted
func (h *LifecycleHandler[T, C, U]) HandleList(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		var query basemodels.ListQueryInput
		if err := ParseRequestQuery(c, &query); err != nil {
			return HandleError(c, err)
		}
		result, err := h.Service.List(logger.RequestContext(c), ActorOf(c), query.ToQuery())
		return HandleResponse(c, result, err)
	})
}

// HandleGet xử lý GET /:id
func (h *LifecycleHandler[T, C, U]) HandleGet(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		id, err := ParseObjectID(c)
		if err != nil {
			return HandleError(c, err)
		}
		var query basemodels.ListQueryInput
		if err := ParseRequestQuery(c, &query); err != nil {
			return HandleError(c, err)
		}
		doc, err := h.Service.Get(logger.RequestContext(c), ActorOf(c), id, query.Projection(), query.IncludeDeleted)
		return HandleResponse(c, doc, err)
	})
}

// HandleCreate xử lý POST /
func (h *LifecycleHandler[T, C, U]) HandleCreate(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		input := new(C)
		if err := ParseRequestBody(c, input); err != nil {
			return HandleError(c, err)
		}
		doc, err := h.Service.CreateFromInput(logger.RequestContext(c), ActorOf(c), input, nil)
		return HandleCreated(c, doc, err)
	})
}

// HandleUpdate xử lý PUT /:id, chỉ các field có trong body được cập nhật
func (h *LifecycleHandler[T, C, U]) HandleUpdate(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		id, err := ParseObjectID(c)
		if err != nil {
			return HandleError(c, err)
		}
		input := new(U)
		if err := ParseRequestBody(c, input); err != nil {
			return HandleError(c, err)
		}
		doc, err := h.Service.UpdateFromInput(logger.RequestContext(c), ActorOf(c), id, input, nil)
		return HandleResponse(c, doc, err)
	})
}

// HandleDelete xử lý DELETE /:id. Xóa chính mình qua route này bị từ chối.
func (h *LifecycleHandler[T, C, U]) HandleDelete(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		id, err := ParseObjectID(c)
		if err != nil {
			return HandleError(c, err)
		}
		doc, err := h.Service.Delete(logger.RequestContext(c), ActorOf(c), id, basesvc.DeleteOptions{}, nil)
		return HandleResponse(c, doc, err)
	})
}

// HandleRestore xử lý POST /:id/restore
func (h *LifecycleHandler[T, C, U]) HandleRestore(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		id, err := ParseObjectID(c)
		if err != nil {
			return HandleError(c, err)
		}
		doc, err := h.Service.Restore(logger.RequestContext(c), ActorOf(c), id, nil)
		return HandleResponse(c, doc, err)
	})
}
