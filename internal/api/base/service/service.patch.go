package basesvc

import (
	"reflect"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"

	"admin_backoffice/internal/common"
	"admin_backoffice/internal/utility"
)

// RedactedValue thay cho giá trị của field nhạy cảm trong lịch sử cập nhật
const RedactedValue = "[redacted]"

type patchOp struct {
	field string
	value interface{}
	clear bool
}

// Patch là một cập nhật từng phần có thứ tự.
// Field không có trong patch giữ nguyên, Clear đưa field về null (chỉ với field cho phép null).
type Patch struct {
	ops []patchOp
}

// NewPatch tạo patch rỗng
func NewPatch() *Patch {
	return &Patch{}
}

// Set gán giá trị mới cho field (đường dẫn bson, ví dụ "profile.name")
func (p *Patch) Set(field string, value interface{}) *Patch {
	p.ops = append(p.ops, patchOp{field: field, value: value})
	return p
}

// Clear đưa field về null
func (p *Patch) Clear(field string) *Patch {
	p.ops = append(p.ops, patchOp{field: field, clear: true})
	return p
}

// Fields trả về danh sách field có trong patch
func (p *Patch) Fields() []string {
	if p == nil {
		return nil
	}
	return lo.Map(p.ops, func(op patchOp, _ int) string { return op.field })
}

// IsEmpty trả về true nếu patch không có thao tác nào
func (p *Patch) IsEmpty() bool {
	return p == nil || len(p.ops) == 0
}

// SetOptional đưa một field Optional của DTO vào patch: không gửi thì bỏ qua, null thì Clear
func SetOptional[V any](p *Patch, field string, o utility.Optional[V]) *Patch {
	switch {
	case !o.Set:
	case o.Null:
		p.Clear(field)
	default:
		p.Set(field, o.Value)
	}
	return p
}

// patchRules là các danh sách field mà policy cho phép
type patchRules struct {
	patchable []string
	nullable  []string
	redacted  []string
}

// applyPatch áp dụng patch lên bản sao của doc.
// Trả về bản sau khi áp dụng và map các field thực sự thay đổi (field nhạy cảm được che).
func applyPatch[T any](doc *T, patch *Patch, rules patchRules) (*T, map[string]interface{}, error) {
	current, err := utility.ToMap(doc)
	if err != nil {
		return nil, nil, err
	}

	changes := map[string]interface{}{}
	if patch.IsEmpty() {
		return doc, changes, nil
	}

	invalid := map[string]string{}
	for _, op := range patch.ops {
		if !lo.Contains(rules.patchable, op.field) {
			invalid[op.field] = "field không được phép cập nhật"
			continue
		}
		if op.clear && !lo.Contains(rules.nullable, op.field) {
			invalid[op.field] = "field không được phép để trống"
			continue
		}

		var next interface{}
		if !op.clear {
			next, err = utility.NormalizeValue(op.value)
			if err != nil {
				invalid[op.field] = "giá trị không hợp lệ"
				continue
			}
		}

		prev, _ := utility.GetPath(current, op.field)
		if reflect.DeepEqual(prev, next) {
			continue
		}
		utility.SetPath(current, op.field, next)

		if lo.Contains(rules.redacted, op.field) && next != nil {
			changes[op.field] = RedactedValue
		} else {
			changes[op.field] = next
		}
	}
	if len(invalid) > 0 {
		return nil, nil, common.ErrInvalidInput.WithDetails(invalid)
	}
	if len(changes) == 0 {
		return doc, changes, nil
	}

	var after T
	if err := utility.FromMap(bson.M(current), &after); err != nil {
		return nil, nil, err
	}
	return &after, changes, nil
}
