// Package memstore là document store trong bộ nhớ có transaction scope.
// Các scope được tuần tự hóa: tại một thời điểm chỉ một scope được mở,
// thay đổi trong scope chỉ được áp dụng khi commit.
package memstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"admin_backoffice/internal/common"
	"admin_backoffice/internal/database"
	"admin_backoffice/internal/utility"
)

var (
	// ErrScopeClosed được trả về khi dùng scope đã commit/abort
	ErrScopeClosed = errors.New("memstore: scope đã đóng")
	// ErrDuplicateID được trả về khi insert trùng _id
	ErrDuplicateID = errors.New("memstore: trùng _id")
)

// Predicate lọc document
type Predicate func(doc bson.M) bool

// uniqueIndex mô phỏng partial unique index của MongoDB
type uniqueIndex struct {
	field   string
	partial Predicate
}

// Store là document store trong bộ nhớ
type Store struct {
	sem         chan struct{} // một scope ghi tại một thời điểm
	mu          sync.RWMutex  // bảo vệ collections
	collections map[string]map[primitive.ObjectID]bson.Raw
	indexes     map[string][]uniqueIndex

	faultMu      sync.Mutex
	commitFaults []error
}

// New tạo store rỗng
func New() *Store {
	return &Store{
		sem:         make(chan struct{}, 1),
		collections: make(map[string]map[primitive.ObjectID]bson.Raw),
		indexes:     make(map[string][]uniqueIndex),
	}
}

// EnsureUnique khai báo unique index trên field cho các document thỏa partial (nil = mọi document)
func (s *Store) EnsureUnique(collection, field string, partial Predicate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[collection] = append(s.indexes[collection], uniqueIndex{field: field, partial: partial})
}

// FailNextCommits khiến các lần commit tiếp theo thất bại với các lỗi theo thứ tự.
// Dùng để mô phỏng lỗi hạ tầng tạm thời.
func (s *Store) FailNextCommits(errs ...error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.commitFaults = append(s.commitFaults, errs...)
}

func (s *Store) popCommitFault() error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	if len(s.commitFaults) == 0 {
		return nil
	}
	err := s.commitFaults[0]
	s.commitFaults = s.commitFaults[1:]
	return err
}

// acquire chiếm quyền ghi, tôn trọng ctx
func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.sem
}

// Begin mở scope mới, chờ tới khi scope trước đó kết thúc
func (s *Store) Begin(ctx context.Context) (database.Scope, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	return &scope{store: s, writes: make(map[string]map[primitive.ObjectID]bson.Raw)}, nil
}

// Collection trả về handle tới collection
func (s *Store) Collection(name string) *Collection {
	return &Collection{store: s, name: name}
}

// ====================================
// SCOPE
// ====================================

type scopeKey struct{}

type scope struct {
	store  *Store
	mu     sync.Mutex
	writes map[string]map[primitive.ObjectID]bson.Raw
	done   bool
}

func (sc *scope) Bind(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, sc)
}

func (sc *scope) Commit(_ context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.done {
		return ErrScopeClosed
	}
	sc.done = true
	defer sc.store.release()

	if err := sc.store.popCommitFault(); err != nil {
		return err
	}

	sc.store.mu.Lock()
	defer sc.store.mu.Unlock()
	for name, docs := range sc.writes {
		coll := sc.store.collectionLocked(name)
		for id, raw := range docs {
			coll[id] = raw
		}
	}
	return nil
}

func (sc *scope) Abort(_ context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.done {
		return nil
	}
	sc.done = true
	sc.writes = nil
	sc.store.release()
	return nil
}

func (sc *scope) End(ctx context.Context) {
	_ = sc.Abort(ctx)
}

// scopeFrom lấy scope đang mở từ ctx (nil nếu không có)
func scopeFrom(ctx context.Context) (*scope, error) {
	sc, ok := ctx.Value(scopeKey{}).(*scope)
	if !ok {
		return nil, nil
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.done {
		return nil, ErrScopeClosed
	}
	return sc, nil
}

// collectionLocked trả về map của collection, tạo mới nếu chưa có. Gọi khi đang giữ mu.
func (s *Store) collectionLocked(name string) map[primitive.ObjectID]bson.Raw {
	coll, ok := s.collections[name]
	if !ok {
		coll = make(map[primitive.ObjectID]bson.Raw)
		s.collections[name] = coll
	}
	return coll
}

// ====================================
// COLLECTION
// ====================================

// Collection là handle tới một collection trong Store
type Collection struct {
	store *Store
	name  string
}

// Name trả về tên collection
func (c *Collection) Name() string {
	return c.name
}

// view trả về bản chụp các document nhìn thấy được (đã commit + ghi trong scope)
func (c *Collection) view(sc *scope) map[primitive.ObjectID]bson.Raw {
	c.store.mu.RLock()
	out := make(map[primitive.ObjectID]bson.Raw, len(c.store.collections[c.name]))
	for id, raw := range c.store.collections[c.name] {
		out[id] = raw
	}
	c.store.mu.RUnlock()

	if sc != nil {
		sc.mu.Lock()
		for id, raw := range sc.writes[c.name] {
			out[id] = raw
		}
		sc.mu.Unlock()
	}
	return out
}

// FindByID trả về document theo _id
func (c *Collection) FindByID(ctx context.Context, id primitive.ObjectID) (bson.Raw, bool, error) {
	sc, err := scopeFrom(ctx)
	if err != nil {
		return nil, false, err
	}
	raw, ok := c.view(sc)[id]
	return raw, ok, nil
}

// Find trả về các document thỏa pred, sắp xếp theo _id tăng dần
func (c *Collection) Find(ctx context.Context, pred Predicate) ([]bson.Raw, error) {
	sc, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	view := c.view(sc)

	ids := make([]primitive.ObjectID, 0, len(view))
	for id := range view {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	var out []bson.Raw
	for _, id := range ids {
		raw := view[id]
		if pred != nil {
			var doc bson.M
			if err := bson.Unmarshal(raw, &doc); err != nil {
				return nil, err
			}
			if !pred(doc) {
				continue
			}
		}
		out = append(out, raw)
	}
	return out, nil
}

// Count đếm số document thỏa pred
func (c *Collection) Count(ctx context.Context, pred Predicate) (int64, error) {
	docs, err := c.Find(ctx, pred)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

// Insert chèn document mới với _id cho trước
func (c *Collection) Insert(ctx context.Context, id primitive.ObjectID, doc interface{}) error {
	return c.write(ctx, id, doc, true)
}

// Replace thay thế document đã tồn tại
func (c *Collection) Replace(ctx context.Context, id primitive.ObjectID, doc interface{}) error {
	return c.write(ctx, id, doc, false)
}

func (c *Collection) write(ctx context.Context, id primitive.ObjectID, doc interface{}, insert bool) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}

	sc, err := scopeFrom(ctx)
	if err != nil {
		return err
	}

	// Ghi ngoài scope: tự mở một scope ngắn
	if sc == nil {
		scoped, err := c.store.Begin(ctx)
		if err != nil {
			return err
		}
		defer scoped.End(ctx)
		if err := c.write(scoped.Bind(ctx), id, doc, insert); err != nil {
			return err
		}
		return scoped.Commit(ctx)
	}

	view := c.view(sc)
	_, exists := view[id]
	if insert && exists {
		return ErrDuplicateID
	}
	if !insert && !exists {
		return common.ErrNotFound
	}
	if err := c.checkUnique(view, id, raw); err != nil {
		return err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.writes[c.name] == nil {
		sc.writes[c.name] = make(map[primitive.ObjectID]bson.Raw)
	}
	sc.writes[c.name][id] = raw
	return nil
}

// checkUnique kiểm tra các unique index của collection
func (c *Collection) checkUnique(view map[primitive.ObjectID]bson.Raw, id primitive.ObjectID, raw bson.Raw) error {
	c.store.mu.RLock()
	indexes := c.store.indexes[c.name]
	c.store.mu.RUnlock()
	if len(indexes) == 0 {
		return nil
	}

	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return err
	}
	for _, idx := range indexes {
		if idx.partial != nil && !idx.partial(doc) {
			continue
		}
		value, ok := utility.GetPath(doc, idx.field)
		if !ok {
			continue
		}
		for otherID, otherRaw := range view {
			if otherID == id {
				continue
			}
			var other bson.M
			if err := bson.Unmarshal(otherRaw, &other); err != nil {
				return err
			}
			if idx.partial != nil && !idx.partial(other) {
				continue
			}
			if v, ok := utility.GetPath(other, idx.field); ok && Equal(v, value) {
				return common.ErrMongoDuplicate.Wrap(fmt.Errorf("duplicate key %s on %s.%s", otherID.Hex(), c.name, idx.field))
			}
		}
	}
	return nil
}

// EnsureIndexes khai báo unique index theo IndexSpec đọc từ struct tag.
// Index có cờ active chỉ áp dụng cho document chưa bị xóa mềm.
func (s *Store) EnsureIndexes(collection string, specs []database.IndexSpec) {
	for _, spec := range specs {
		if !spec.Unique {
			continue
		}
		var partial Predicate
		if spec.Active {
			partial = Not(IsTrue("metadata.deleted"))
		}
		s.EnsureUnique(collection, spec.Field, partial)
	}
}
