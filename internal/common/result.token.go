package common

import "errors"

// ResultToken là token kết quả mà tầng nghiệp vụ trả về cho tầng trên,
// độc lập với việc ánh xạ sang HTTP status code.
type ResultToken string

const (
	TokenSuccess          ResultToken = "success"
	TokenNotFound         ResultToken = "not-found"
	TokenConflict         ResultToken = "conflict"
	TokenForbidden        ResultToken = "forbidden"
	TokenCannotDeleteSelf ResultToken = "cannot-delete-self"
	TokenUnauthenticated  ResultToken = "unauthenticated"
	TokenInvalidInput     ResultToken = "invalid-input"
	TokenInternalError    ResultToken = "internal-error"
)

// Các reason đi kèm token
const (
	ReasonLevelInUse                 = "level-in-use"
	ReasonEmailInUse                 = "email-in-use"
	ReasonNameInUse                  = "name-in-use"
	ReasonRoleInUse                  = "role-in-use"
	ReasonRoleNotFound               = "role-not-found"
	ReasonLevelTooHigh               = "level-too-high"
	ReasonCannotDeleteDueToRoleLevel = "cannot-delete-due-to-role-level"
	ReasonMissingPermission          = "missing-permission"
)

// IsDomainError trả về true nếu lỗi là lỗi nghiệp vụ (không thể thay đổi kết quả khi thử lại)
func IsDomainError(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Token {
	case TokenNotFound, TokenConflict, TokenForbidden, TokenCannotDeleteSelf,
		TokenUnauthenticated, TokenInvalidInput:
		return true
	}
	return false
}

// TokenOf trả về token kết quả tương ứng với lỗi.
// Mọi lỗi không phải lỗi nghiệp vụ đều quy về internal-error.
func TokenOf(err error) ResultToken {
	if err == nil {
		return TokenSuccess
	}
	if !IsDomainError(err) {
		return TokenInternalError
	}
	var e *Error
	errors.As(err, &e)
	return e.Token
}

// ReasonOf trả về reason của lỗi nghiệp vụ (rỗng nếu không có)
func ReasonOf(err error) string {
	var e *Error
	if IsDomainError(err) && errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// Collapse giữ nguyên lỗi nghiệp vụ, các lỗi còn lại quy về ErrInternal
// để không lộ chi tiết nội bộ ra ngoài.
func Collapse(err error) error {
	if err == nil || IsDomainError(err) {
		return err
	}
	return ErrInternal
}
