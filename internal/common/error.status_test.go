package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestErrorIs_MatchesByCodeAndReason(t *testing.T) {
	wrapped := fmt.Errorf("tạo vai trò: %w", ErrLevelInUse)

	assert.True(t, errors.Is(wrapped, ErrConflict), "conflict có reason vẫn khớp ErrConflict")
	assert.True(t, errors.Is(wrapped, ErrLevelInUse))
	assert.False(t, errors.Is(wrapped, ErrEmailInUse), "khác reason thì không khớp")
	assert.False(t, errors.Is(wrapped, ErrNotFound))
}

func TestTokenOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ResultToken
	}{
		{"nil", nil, TokenSuccess},
		{"not found", ErrNotFound, TokenNotFound},
		{"conflict", fmt.Errorf("x: %w", ErrEmailInUse), TokenConflict},
		{"forbidden", ErrLevelTooHigh, TokenForbidden},
		{"self", ErrCannotDeleteSelf, TokenCannotDeleteSelf},
		{"write conflict", ErrWriteConflict, TokenInternalError},
		{"plain", errors.New("boom"), TokenInternalError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TokenOf(tc.err))
		})
	}
}

func TestIsDomainError(t *testing.T) {
	assert.True(t, IsDomainError(ErrNotFound))
	assert.True(t, IsDomainError(ErrCannotDeleteDueToRoleLevel))
	assert.True(t, IsDomainError(NewValidationError("", nil)))
	assert.False(t, IsDomainError(ErrWriteConflict))
	assert.False(t, IsDomainError(ErrInternal))
	assert.False(t, IsDomainError(errors.New("boom")))
}

func TestCollapse(t *testing.T) {
	assert.Equal(t, ErrLevelTooHigh, Collapse(ErrLevelTooHigh))
	assert.Equal(t, ErrInternal, Collapse(errors.New("socket closed")))
	assert.Nil(t, Collapse(nil))
}

func TestConvertMongoError(t *testing.T) {
	assert.Nil(t, ConvertMongoError(nil))
	assert.True(t, errors.Is(ConvertMongoError(mongo.ErrNoDocuments), ErrNotFound))

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	converted := ConvertMongoError(dup)
	assert.True(t, errors.Is(converted, ErrMongoDuplicate))
	assert.False(t, IsDomainError(converted), "trùng khóa ở tầng driver được thử lại rồi kiểm tra lại")

	transient := mongo.CommandError{Code: 112, Name: "WriteConflict", Labels: []string{LabelTransientTransaction}}
	converted = ConvertMongoError(transient)
	assert.True(t, errors.Is(converted, ErrWriteConflict))
	assert.True(t, IsTransient(converted))

	var ce mongo.CommandError
	assert.True(t, errors.As(converted, &ce), "lỗi gốc vẫn truy cập được")
}

func TestWithDetails_DoesNotMutateSentinel(t *testing.T) {
	e := ErrInvalidInput.WithDetails(map[string]string{"name": "required"})
	assert.NotNil(t, e.Details)
	assert.Nil(t, ErrInvalidInput.Details)
}
