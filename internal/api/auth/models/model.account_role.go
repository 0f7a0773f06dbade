// Package models - các thực thể của domain auth: vai trò (AccountRole) và tài khoản (Account).
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	basemodels "admin_backoffice/internal/api/base/models"
)

// AccountRole vai trò của tài khoản quản trị.
// Level càng nhỏ quyền càng cao, -1 dành riêng cho vai trò Admin của hệ thống.
type AccountRole struct {
	ID                primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Name              string              `json:"name" bson:"name" index:"unique,active"`
	Description       string              `json:"description" bson:"description"`
	Level             int                 `json:"level" bson:"level" index:"unique,active"`
	Permissions       []string            `json:"permissions" bson:"permissions"`
	RequiresTwoFactor bool                `json:"requiresTwoFactor" bson:"requiresTwoFactor"`
	IsSystemRole      bool                `json:"isSystemRole" bson:"isSystemRole"`
	Metadata          basemodels.Metadata `json:"metadata" bson:"metadata"`
}

func (r *AccountRole) GetID() primitive.ObjectID {
	return r.ID
}

func (r *AccountRole) SetID(id primitive.ObjectID) {
	r.ID = id
}

func (r *AccountRole) GetMetadata() *basemodels.Metadata {
	return &r.Metadata
}
