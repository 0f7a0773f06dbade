package common

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// HTTP Status Code Constants
const (
	// Success Codes (2xx)
	StatusOK      = 200 // Thành công
	StatusCreated = 201 // Tạo mới thành công

	// Client Error Codes (4xx)
	StatusBadRequest      = 400 // Yêu cầu không hợp lệ
	StatusUnauthorized    = 401 // Chưa xác thực
	StatusForbidden       = 403 // Không có quyền truy cập
	StatusNotFound        = 404 // Không tìm thấy tài nguyên
	StatusConflict        = 409 // Xung đột dữ liệu
	StatusTooManyRequests = 429 // Quá nhiều yêu cầu

	// Server Error Codes (5xx)
	StatusInternalServerError = 500 // Lỗi server
	StatusServiceUnavailable  = 503 // Dịch vụ không khả dụng
)

// Response Messages
const (
	MsgSuccess = "Thao tác thành công"
	MsgCreated = "Tạo mới thành công"

	MsgBadRequest      = "Yêu cầu không hợp lệ"
	MsgUnauthorized    = "Vui lòng đăng nhập"
	MsgForbidden       = "Không có quyền truy cập"
	MsgNotFound        = "Không tìm thấy tài nguyên"
	MsgConflict        = "Xung đột dữ liệu"
	MsgTooManyRequests = "Quá nhiều yêu cầu"
	MsgInternalError   = "Lỗi hệ thống"

	MsgTokenMissing = "Thiếu token xác thực"
	MsgTokenInvalid = "Token không hợp lệ"
	MsgTokenExpired = "Token đã hết hạn"
)

// ErrorCode định nghĩa mã lỗi chi tiết
type ErrorCode struct {
	Code        string // Mã lỗi (ví dụ: AUTH_001)
	Category    string // Phân loại lỗi (ví dụ: Authentication)
	SubCategory string // Phân loại con (ví dụ: Token)
	Description string // Mô tả chi tiết
}

// Định nghĩa các mã lỗi theo hệ thống phân cấp
var (
	// System Errors (SYS_xxx)
	ErrCodeInternalServer = ErrorCode{
		Code:        "SYS_001",
		Category:    "System",
		SubCategory: "Internal",
		Description: "Lỗi hệ thống nội bộ",
	}

	// Authentication Errors (AUTH_xxx)
	ErrCodeAuthToken = ErrorCode{
		Code:        "AUTH_001",
		Category:    "Authentication",
		SubCategory: "Token",
		Description: "Lỗi liên quan đến token",
	}

	ErrCodeAuthCredentials = ErrorCode{
		Code:        "AUTH_002",
		Category:    "Authentication",
		SubCategory: "Credentials",
		Description: "Lỗi thông tin đăng nhập",
	}

	ErrCodeAuthRole = ErrorCode{
		Code:        "AUTH_003",
		Category:    "Authentication",
		SubCategory: "Role",
		Description: "Lỗi phân quyền theo vai trò hoặc cấp bậc",
	}

	// Validation Errors (VAL_xxx)
	ErrCodeValidationInput = ErrorCode{
		Code:        "VAL_001",
		Category:    "Validation",
		SubCategory: "Input",
		Description: "Lỗi dữ liệu đầu vào",
	}

	// Database Errors (DB_xxx)
	ErrCodeDatabaseConnection = ErrorCode{
		Code:        "DB_001",
		Category:    "Database",
		SubCategory: "Connection",
		Description: "Lỗi kết nối cơ sở dữ liệu",
	}

	ErrCodeDatabaseQuery = ErrorCode{
		Code:        "DB_002",
		Category:    "Database",
		SubCategory: "Query",
		Description: "Lỗi truy vấn dữ liệu",
	}

	ErrCodeDatabaseTransaction = ErrorCode{
		Code:        "DB_003",
		Category:    "Database",
		SubCategory: "Transaction",
		Description: "Lỗi giao dịch cơ sở dữ liệu",
	}

	// Lifecycle Errors (LC_xxx)
	ErrCodeLifecycleNotFound = ErrorCode{
		Code:        "LC_001",
		Category:    "Lifecycle",
		SubCategory: "NotFound",
		Description: "Thực thể không tồn tại hoặc đã bị xóa",
	}

	ErrCodeLifecycleConflict = ErrorCode{
		Code:        "LC_002",
		Category:    "Lifecycle",
		SubCategory: "Conflict",
		Description: "Khóa duy nhất đã được sử dụng",
	}

	ErrCodeLifecycleSelf = ErrorCode{
		Code:        "LC_003",
		Category:    "Lifecycle",
		SubCategory: "Self",
		Description: "Không được tự xóa tài khoản của chính mình",
	}

	ErrCodeRateLimit = ErrorCode{
		Code:        "SYS_002",
		Category:    "System",
		SubCategory: "RateLimit",
		Description: "Vượt quá số request cho phép",
	}
)

// Error định nghĩa cấu trúc lỗi chi tiết
type Error struct {
	Code       ErrorCode   // Mã lỗi chi tiết
	Message    string      // Thông báo lỗi
	StatusCode int         // HTTP status code
	Details    any         // Thông tin chi tiết thêm về lỗi
	Token      ResultToken // Token kết quả trả về tầng trên
	Reason     string      // Lý do chi tiết (level-in-use, email-in-use, ...)
	cause      error
}

// Error trả về message của lỗi
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap trả về lỗi gốc (nếu có) để errors.As tìm được lỗi của driver
func (e *Error) Unwrap() error {
	return e.cause
}

// Is so sánh theo mã lỗi. Nếu target có Reason thì Reason cũng phải khớp.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	if e.Code.Code != t.Code.Code {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// WithDetails trả về bản sao của lỗi kèm details
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Wrap trả về bản sao của lỗi giữ lại lỗi gốc
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

// NewError tạo một error mới với đầy đủ thông tin
func NewError(code ErrorCode, message string, statusCode int, details any) error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
		Token:      TokenInternalError,
	}
}

// newDomainError tạo lỗi nghiệp vụ có token và reason
func newDomainError(code ErrorCode, token ResultToken, reason, message string, statusCode int) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Token:      token,
		Reason:     reason,
	}
}

// Custom errors
var (
	// Authentication Errors
	ErrUnauthenticated    = newDomainError(ErrCodeAuthToken, TokenUnauthenticated, "", MsgUnauthorized, StatusUnauthorized)
	ErrTokenMissing       = newDomainError(ErrCodeAuthToken, TokenUnauthenticated, "token-missing", MsgTokenMissing, StatusUnauthorized)
	ErrTokenInvalid       = newDomainError(ErrCodeAuthToken, TokenUnauthenticated, "token-invalid", MsgTokenInvalid, StatusUnauthorized)
	ErrTokenExpired       = newDomainError(ErrCodeAuthToken, TokenUnauthenticated, "token-expired", MsgTokenExpired, StatusUnauthorized)
	ErrInvalidCredentials = newDomainError(ErrCodeAuthCredentials, TokenUnauthenticated, "invalid-credentials", "Thông tin đăng nhập không chính xác", StatusUnauthorized)

	// Forbidden Errors
	ErrForbidden                  = newDomainError(ErrCodeAuthRole, TokenForbidden, "", MsgForbidden, StatusForbidden)
	ErrMissingPermission          = newDomainError(ErrCodeAuthRole, TokenForbidden, ReasonMissingPermission, "Vai trò không có quyền thực hiện thao tác này", StatusForbidden)
	ErrLevelTooHigh               = newDomainError(ErrCodeAuthRole, TokenForbidden, ReasonLevelTooHigh, "Không thể thao tác với cấp bậc bằng hoặc cao hơn cấp bậc của bạn", StatusForbidden)
	ErrCannotDeleteDueToRoleLevel = newDomainError(ErrCodeAuthRole, TokenForbidden, ReasonCannotDeleteDueToRoleLevel, "Không thể xóa thực thể có cấp bậc bằng hoặc cao hơn cấp bậc của bạn", StatusForbidden)
	ErrCannotDeleteSelf           = newDomainError(ErrCodeLifecycleSelf, TokenCannotDeleteSelf, "", "Không thể tự xóa tài khoản của chính mình", StatusForbidden)

	// Lifecycle Errors
	ErrNotFound     = newDomainError(ErrCodeLifecycleNotFound, TokenNotFound, "", "Không tìm thấy dữ liệu", StatusNotFound)
	ErrRoleNotFound = newDomainError(ErrCodeLifecycleNotFound, TokenNotFound, ReasonRoleNotFound, "Vai trò không tồn tại hoặc đã bị xóa", StatusNotFound)
	ErrConflict     = newDomainError(ErrCodeLifecycleConflict, TokenConflict, "", MsgConflict, StatusConflict)
	ErrLevelInUse   = newDomainError(ErrCodeLifecycleConflict, TokenConflict, ReasonLevelInUse, "Cấp bậc đã được vai trò khác sử dụng", StatusConflict)
	ErrEmailInUse   = newDomainError(ErrCodeLifecycleConflict, TokenConflict, ReasonEmailInUse, "Email đã được tài khoản khác sử dụng", StatusConflict)
	ErrNameInUse    = newDomainError(ErrCodeLifecycleConflict, TokenConflict, ReasonNameInUse, "Tên vai trò đã được sử dụng", StatusConflict)
	ErrRoleInUse    = newDomainError(ErrCodeLifecycleConflict, TokenConflict, ReasonRoleInUse, "Không thể xóa vai trò vì còn tài khoản đang sử dụng", StatusConflict)

	// Validation Errors
	ErrInvalidInput  = newDomainError(ErrCodeValidationInput, TokenInvalidInput, "", "Dữ liệu đầu vào không hợp lệ", StatusBadRequest)
	ErrRequiredField = newDomainError(ErrCodeValidationInput, TokenInvalidInput, "required-field", "Thiếu thông tin bắt buộc", StatusBadRequest)

	// System Errors
	ErrInternal = &Error{Code: ErrCodeInternalServer, Message: MsgInternalError, StatusCode: StatusInternalServerError, Token: TokenInternalError}

	// Database Errors
	ErrMongoDuplicate = &Error{Code: ErrCodeDatabaseQuery, Message: "Dữ liệu trùng lặp trong MongoDB", StatusCode: StatusConflict, Token: TokenInternalError, Reason: "duplicate-key"}
	ErrMongoQuery     = &Error{Code: ErrCodeDatabaseQuery, Message: "Lỗi truy vấn MongoDB", StatusCode: StatusInternalServerError, Token: TokenInternalError, Reason: "query"}
	ErrMongoNetwork   = &Error{Code: ErrCodeDatabaseConnection, Message: "Lỗi mạng khi kết nối MongoDB", StatusCode: StatusServiceUnavailable, Token: TokenInternalError, Reason: "network"}
	ErrMongoTimeout   = &Error{Code: ErrCodeDatabaseConnection, Message: "Kết nối MongoDB bị timeout", StatusCode: StatusServiceUnavailable, Token: TokenInternalError, Reason: "timeout"}
	ErrTransaction    = &Error{Code: ErrCodeDatabaseTransaction, Message: "Lỗi giao dịch cơ sở dữ liệu", StatusCode: StatusInternalServerError, Token: TokenInternalError, Reason: "transaction"}
	ErrWriteConflict  = &Error{Code: ErrCodeDatabaseTransaction, Message: "Xung đột ghi trong giao dịch", StatusCode: StatusConflict, Token: TokenInternalError, Reason: "write-conflict"}
)

// NewValidationError tạo lỗi dữ liệu đầu vào kèm chi tiết
func NewValidationError(message string, details any) error {
	e := *ErrInvalidInput
	if message != "" {
		e.Message = message
	}
	e.Details = details
	return &e
}

// ConvertMongoError chuyển đổi lỗi MongoDB sang lỗi hệ thống.
// Lỗi gốc được giữ lại để có thể đọc error label (TransientTransactionError, ...).
func ConvertMongoError(err error) error {
	if err == nil {
		return nil
	}

	var customErr *Error
	if errors.As(err, &customErr) {
		return err
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrMongoDuplicate.Wrap(err)
	}
	if mongo.IsNetworkError(err) {
		return ErrMongoNetwork.Wrap(err)
	}
	if mongo.IsTimeout(err) {
		return ErrMongoTimeout.Wrap(err)
	}

	var labeled mongo.LabeledError
	if errors.As(err, &labeled) && labeled.HasErrorLabel(LabelTransientTransaction) {
		return ErrWriteConflict.Wrap(err)
	}

	return ErrMongoQuery.Wrap(err)
}

// Error label mà MongoDB gắn cho lỗi giao dịch có thể thử lại
const (
	LabelTransientTransaction = "TransientTransactionError"
	LabelUnknownCommitResult  = "UnknownTransactionCommitResult"
)

// IsTransient cho biết lỗi có phải lỗi hạ tầng tạm thời hay không (chỉ dùng để ghi log)
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrWriteConflict) || errors.Is(err, ErrMongoNetwork) || errors.Is(err, ErrMongoTimeout) {
		return true
	}
	var labeled mongo.LabeledError
	if errors.As(err, &labeled) {
		return labeled.HasErrorLabel(LabelTransientTransaction) ||
			labeled.HasErrorLabel(LabelUnknownCommitResult)
	}
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}
