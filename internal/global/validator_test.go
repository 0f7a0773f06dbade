package global

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"admin_backoffice/internal/utility"
)

type sampleInput struct {
	Name        utility.Optional[string]   `validate:"omitempty,min=2"`
	Password    utility.Optional[string]   `validate:"omitempty,strong_password"`
	Permissions utility.Optional[[]string] `validate:"omitempty,dive,permission"`
	Required    utility.Optional[int]      `validate:"required"`
}

func TestValidator_Optional(t *testing.T) {
	InitValidator()

	assert.NoError(t, Validate.Struct(sampleInput{Required: utility.Some(1)}))
	assert.Error(t, Validate.Struct(sampleInput{}))
	assert.Error(t, Validate.Struct(sampleInput{Required: utility.Null[int]()}))

	assert.Error(t, Validate.Struct(sampleInput{Name: utility.Some("a"), Required: utility.Some(1)}))
	assert.NoError(t, Validate.Struct(sampleInput{Name: utility.Null[string](), Required: utility.Some(1)}))
	assert.Error(t, Validate.Struct(sampleInput{Password: utility.Some("weak"), Required: utility.Some(1)}))
	assert.NoError(t, Validate.Struct(sampleInput{Password: utility.Some("Str0ng!pass"), Required: utility.Some(1)}))
}

func TestValidator_Permission(t *testing.T) {
	InitValidator()

	type perms struct {
		Items []string `validate:"dive,permission"`
	}
	assert.NoError(t, Validate.Struct(perms{Items: []string{"*", "roles:read"}}))
	assert.Error(t, Validate.Struct(perms{Items: []string{"roles"}}))
	assert.Error(t, Validate.Struct(perms{Items: []string{"roles:"}}))
}
