// Package basehdl - các hàm xử lý request/response dùng chung và handler vòng đời generic.
package basehdl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"admin_backoffice/internal/authz"
	"admin_backoffice/internal/common"
	"admin_backoffice/internal/global"
	"admin_backoffice/internal/logger"
)

// Các key lưu trong fiber Locals
const (
	LocalsActor   = "actor"
	LocalsActorID = "actorID"
)

// tokenStatus ánh xạ token kết quả sang HTTP status
var tokenStatus = map[common.ResultToken]int{
	common.TokenSuccess:          common.StatusOK,
	common.TokenNotFound:         common.StatusNotFound,
	common.TokenConflict:         common.StatusConflict,
	common.TokenForbidden:        common.StatusForbidden,
	common.TokenCannotDeleteSelf: common.StatusForbidden,
	common.TokenUnauthenticated:  common.StatusUnauthorized,
	common.TokenInvalidInput:     common.StatusBadRequest,
	common.TokenInternalError:    common.StatusInternalServerError,
}

// StatusOf trả về HTTP status tương ứng với lỗi
func StatusOf(err error) int {
	return tokenStatus[common.TokenOf(err)]
}

// JSONResponse trả về JSON response với Content-Type: application/json; charset=utf-8
func JSONResponse(c fiber.Ctx, statusCode int, data interface{}) error {
	c.Set("Content-Type", "application/json; charset=utf-8")
	return c.Status(statusCode).JSON(data)
}

// HandleResponse chuẩn hóa response: {code, message, data|details, status}
func HandleResponse(c fiber.Ctx, data interface{}, err error) error {
	if err != nil {
		return HandleError(c, err)
	}
	return JSONResponse(c, common.StatusOK, fiber.Map{
		"code":    common.StatusOK,
		"message": common.MsgSuccess,
		"data":    data,
		"status":  "success",
	})
}

// HandleCreated trả về 201 cho thao tác tạo mới thành công
func HandleCreated(c fiber.Ctx, data interface{}, err error) error {
	if err != nil {
		return HandleError(c, err)
	}
	return JSONResponse(c, common.StatusCreated, fiber.Map{
		"code":    common.StatusCreated,
		"message": common.MsgSuccess,
		"data":    data,
		"status":  "success",
	})
}

// HandleError trả về error response. Lỗi không phải lỗi nghiệp vụ không lộ chi tiết ra ngoài.
func HandleError(c fiber.Ctx, err error) error {
	var customErr *common.Error
	if !common.IsDomainError(err) || !errors.As(err, &customErr) {
		logger.WithRequest(c).WithError(err).Error("Lỗi hệ thống khi xử lý request")
		customErr = common.ErrInternal
	}

	body := fiber.Map{
		"code":    customErr.Code.Code,
		"message": customErr.Message,
		"token":   customErr.Token,
		"status":  "error",
	}
	if customErr.Reason != "" {
		body["reason"] = customErr.Reason
	}
	if customErr.Details != nil {
		body["details"] = customErr.Details
	}
	return JSONResponse(c, tokenStatus[customErr.Token], body)
}

// SafeHandler bọc handler với recover, panic được trả về dưới dạng internal-error
func SafeHandler(c fiber.Ctx, handler func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithRequest(c).WithFields(logrus.Fields{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			}).Error("Panic khi xử lý request")
			err = HandleError(c, common.ErrInternal)
		}
	}()
	return handler()
}

// ====================================
// REQUEST
// ====================================

// ParseRequestBody parse JSON body và validate theo struct tag
func ParseRequestBody(c fiber.Ctx, input interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(c.Body()))
	if err := decoder.Decode(input); err != nil {
		return common.ErrInvalidInput.WithDetails(map[string]string{"body": "JSON không hợp lệ"})
	}
	return ValidateInput(input)
}

// ParseRequestQuery parse query string và validate
func ParseRequestQuery(c fiber.Ctx, input interface{}) error {
	if err := c.Bind().Query(input); err != nil {
		return common.ErrInvalidInput.WithDetails(map[string]string{"query": err.Error()})
	}
	return ValidateInput(input)
}

// ValidateInput validate struct bằng validator dùng chung
func ValidateInput(input interface{}) error {
	global.InitValidator()
	err := global.Validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		return common.ErrInvalidInput.WithDetails(details)
	}
	return common.ErrInvalidInput.WithDetails(err.Error())
}

// ParseObjectID đọc :id từ URL params
func ParseObjectID(c fiber.Ctx) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return primitive.NilObjectID, common.ErrInvalidInput.WithDetails(map[string]string{"id": "ObjectID không hợp lệ"})
	}
	return id, nil
}

// ====================================
// ACTOR
// ====================================

// SetActor lưu actor đã xác thực vào Locals
func SetActor(c fiber.Ctx, actor *authz.Actor) {
	c.Locals(LocalsActor, actor)
	c.Locals(LocalsActorID, actor.ID.Hex())
}

// ActorOf trả về actor của request (nil nếu chưa xác thực)
func ActorOf(c fiber.Ctx) *authz.Actor {
	actor, _ := c.Locals(LocalsActor).(*authz.Actor)
	return actor
}
