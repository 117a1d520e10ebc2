// Package session provides a unit of work over a gorm transaction.
//
// A Session keeps an identity map of the entities loaded or saved through it, so that
// at most one in-memory instance exists per stored row. Tracked entities are compared
// against their load-time snapshot when the session flushes, and changed ones are written
// back before the transaction commits. Entities fetched outside a session, or through a
// read-only query, are detached: changing them never reaches the database.
package session

import (
	"context"
	"database/sql/driver"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/festy23/datajpa/internal/database/dberr"
)

type entryKey struct {
	typ reflect.Type
	id  int64
}

type entry struct {
	entity any
	dirty  func() bool
	reset  func()
}

// Session is a unit of work bound to one transaction. It is not safe for concurrent use.
type Session struct {
	tx      *gorm.DB
	logger  *zap.SugaredLogger
	entries map[entryKey]*entry
	order   []entryKey
}

// New binds a session to tx. Callers own the transaction; prefer Run.
func New(tx *gorm.DB, logger *zap.SugaredLogger) *Session {
	return &Session{
		tx:      tx,
		logger:  logger,
		entries: make(map[entryKey]*entry),
	}
}

// Run executes fn inside a transaction. Dirty entities are flushed after fn returns
// and before commit. Any error from fn or the flush rolls the transaction back.
func Run(ctx context.Context, db *gorm.DB, logger *zap.SugaredLogger, fn func(s *Session) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s := New(tx, logger)
		if err := fn(s); err != nil {
			logger.Debugw("session rolled back", "error", err)
			return err
		}
		return s.Flush(ctx)
	})
}

// DB returns the transaction handle the session writes through.
func (s *Session) DB() *gorm.DB {
	return s.tx
}

// Tracked returns the number of entities in the identity map.
func (s *Session) Tracked() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Track registers entity under id and returns the canonical instance for that id.
// If the id is already tracked the existing instance wins and entity is discarded.
// A nil session returns entity unchanged.
func Track[T any](s *Session, id int64, entity *T) *T {
	if s == nil || entity == nil {
		return entity
	}
	key := entryKey{typ: reflect.TypeOf(entity), id: id}
	if existing, ok := s.entries[key]; ok {
		return existing.entity.(*T)
	}

	snapshot := copyColumns(entity)
	s.entries[key] = &entry{
		entity: entity,
		dirty: func() bool {
			return !sameColumns(reflect.ValueOf(*entity), reflect.ValueOf(snapshot))
		},
		reset: func() {
			snapshot = copyColumns(entity)
		},
	}
	s.order = append(s.order, key)
	return entity
}

// Attach makes entity the tracked instance for id, replacing any previous instance,
// and records its current state as clean. Use it after entity was written.
func Attach[T any](s *Session, id int64, entity *T) *T {
	if s == nil || entity == nil {
		return entity
	}
	Forget[T](s, id)
	return Track(s, id, entity)
}

// Lookup returns the tracked instance of type T with id.
func Lookup[T any](s *Session, id int64) (*T, bool) {
	if s == nil {
		return nil, false
	}
	e, ok := s.entries[entryKey{typ: reflect.TypeOf((*T)(nil)), id: id}]
	if !ok {
		return nil, false
	}
	return e.entity.(*T), true
}

// Forget removes the instance of type T with id from the identity map.
func Forget[T any](s *Session, id int64) {
	if s == nil {
		return
	}
	key := entryKey{typ: reflect.TypeOf((*T)(nil)), id: id}
	if _, ok := s.entries[key]; !ok {
		return
	}
	delete(s.entries, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Flush writes every tracked entity that changed since it was loaded or last flushed.
// Associations are not cascaded.
func (s *Session) Flush(ctx context.Context) error {
	flushed := 0
	for _, key := range s.order {
		e := s.entries[key]
		if !e.dirty() {
			continue
		}
		if err := s.tx.WithContext(ctx).Omit(clause.Associations).Save(e.entity).Error; err != nil {
			s.logger.Errorw("Flush failed", "entity", key.typ.String(), "id", key.id, "error", err)
			return fmt.Errorf("flush %s %d: %w", key.typ.Elem().Name(), key.id, dberr.Classify(err))
		}
		e.reset()
		flushed++
	}
	if flushed > 0 {
		s.logger.Debugw("Flush completed", "flushed", flushed, "tracked", len(s.entries))
	}
	return nil
}

// Clear detaches every tracked entity without flushing. Pending changes are lost.
func (s *Session) Clear() {
	if s == nil {
		return
	}
	s.entries = make(map[entryKey]*entry)
	s.order = nil
}

var (
	timeType   = reflect.TypeOf(time.Time{})
	valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

// copyColumns returns a copy of *entity whose pointer columns point at their own values,
// so writes through the entity's pointers show up as changes.
func copyColumns[T any](entity *T) T {
	out := *entity
	v := reflect.ValueOf(&out).Elem()
	if v.Kind() != reflect.Struct {
		return out
	}
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !v.Type().Field(i).IsExported() || field.Kind() != reflect.Ptr || field.IsNil() ||
			isAssociation(field.Type()) {
			continue
		}
		clone := reflect.New(field.Type().Elem())
		clone.Elem().Set(field.Elem())
		field.Set(clone)
	}
	return out
}

// sameColumns compares the column fields of two values of the same type.
// Associations are skipped: they are never written by Flush.
func sameColumns(a, b reflect.Value) bool {
	if a.Kind() != reflect.Struct {
		return reflect.DeepEqual(a.Interface(), b.Interface())
	}
	for i := 0; i < a.NumField(); i++ {
		field := a.Type().Field(i)
		if !field.IsExported() || isAssociation(field.Type) {
			continue
		}
		if !reflect.DeepEqual(a.Field(i).Interface(), b.Field(i).Interface()) {
			return false
		}
	}
	return true
}

func isAssociation(t reflect.Type) bool {
	if t == timeType || t.Implements(valuerType) || reflect.PointerTo(t).Implements(valuerType) {
		return false
	}
	switch t.Kind() {
	case reflect.Struct:
		return true
	case reflect.Ptr, reflect.Slice:
		elem := t.Elem()
		if elem.Kind() == reflect.Ptr {
			elem = elem.Elem()
		}
		return elem.Kind() == reflect.Struct && elem != timeType
	default:
		return false
	}
}
