package models

import (
	"strings"

	"github.com/samber/lo"
)

// ListQueryInput tham số query của các route danh sách.
// fields: danh sách field cách nhau bởi dấu phẩy; count: số mục mỗi trang.
type ListQueryInput struct {
	Fields         string `query:"fields" validate:"max=500"`
	Search         string `query:"search" validate:"max=200"`
	Page           int64  `query:"page" validate:"min=0"`
	Count          int64  `query:"count" validate:"min=0,max=100"`
	IncludeDeleted bool   `query:"includeDeleted"`
}

// Projection tách danh sách field
func (q ListQueryInput) Projection() []string {
	fields := lo.Map(strings.Split(q.Fields, ","), func(f string, _ int) string {
		return strings.TrimSpace(f)
	})
	return lo.Uniq(lo.Compact(fields))
}

// ToQuery chuyển sang ListQuery của tầng service
func (q ListQueryInput) ToQuery() ListQuery {
	return ListQuery{
		Projection:     q.Projection(),
		Search:         q.Search,
		Page:           q.Page,
		Limit:          q.Count,
		IncludeDeleted: q.IncludeDeleted,
	}
}
