package global

import (
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"admin_backoffice/internal/utility"
)

var validatorOnce sync.Once

// InitValidator khởi tạo và đăng ký các custom validator (gọi nhiều lần vẫn an toàn)
func InitValidator() {
	validatorOnce.Do(func() {
		Validate = validator.New()

		// Optional[T]: validator kiểm tra giá trị bên trong, field không gửi/null được coi là rỗng
		Validate.RegisterCustomTypeFunc(utility.OptionalTypeFunc,
			utility.Optional[string]{},
			utility.Optional[int]{},
			utility.Optional[bool]{},
			utility.Optional[[]string]{},
		)

		_ = Validate.RegisterValidation("no_xss", validateNoXSS)
		_ = Validate.RegisterValidation("strong_password", validateStrongPassword)
		_ = Validate.RegisterValidation("permission", validatePermission)
	})
}

// validateNoXSS kiểm tra XSS
func validateNoXSS(fl validator.FieldLevel) bool {
	dangerousPatterns := []string{
		"<script",
		"javascript:",
		"onerror=",
		"onload=",
		"onclick=",
		"<iframe",
		"<object",
		"<embed",
	}

	value := strings.ToLower(fl.Field().String())
	for _, pattern := range dangerousPatterns {
		if strings.Contains(value, pattern) {
			return false
		}
	}
	return true
}

// validateStrongPassword: tối thiểu 8 ký tự và thỏa ít nhất 3 trong 4 điều kiện
// (chữ hoa, chữ thường, số, ký tự đặc biệt)
func validateStrongPassword(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if len(value) < 8 {
		return false
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range value {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	conditions := 0
	for _, ok := range []bool{hasUpper, hasLower, hasNumber, hasSpecial} {
		if ok {
			conditions++
		}
	}
	return conditions >= 3
}

// validatePermission: "*" hoặc dạng "<resource>:<action>"
func validatePermission(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "*" {
		return true
	}
	parts := strings.Split(value, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	return !strings.ContainsAny(value, " \t")
}
