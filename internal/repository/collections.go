package repository

import (
	"context"
	"errors"

	"swiftpolicy/internal/model"
)

// ErrNotInCollection is returned by Set.Replace when no element has the key.
var ErrNotInCollection = errors.New("element not in collection")

// Set is a typed view of a list-shaped collection inside a unit of work.
type Set[T any] struct {
	tx   Tx
	name string
	key  func(T) string
}

// NewSet builds a typed view over the named collection.
func NewSet[T any](tx Tx, name string, key func(T) string) Set[T] {
	return Set[T]{tx: tx, name: name, key: key}
}

// All returns every element in stored order.
func (s Set[T]) All() ([]T, error) {
	var items []T
	if _, err := s.tx.Load(s.name, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Len returns the number of elements.
func (s Set[T]) Len() (int, error) {
	items, err := s.All()
	return len(items), err
}

// Get returns the element with the given key.
func (s Set[T]) Get(id string) (T, bool, error) {
	return s.Find(func(item T) bool { return s.key(item) == id })
}

// Find returns the first element matching pred.
func (s Set[T]) Find(pred func(T) bool) (T, bool, error) {
	var zero T
	items, err := s.All()
	if err != nil {
		return zero, false, err
	}
	for _, item := range items {
		if pred(item) {
			return item, true, nil
		}
	}
	return zero, false, nil
}

// Append adds item at the end.
func (s Set[T]) Append(item T) error {
	items, err := s.All()
	if err != nil {
		return err
	}
	return s.tx.Save(s.name, append(items, item))
}

// Prepend adds item at the front, keeping the collection most-recent-first.
func (s Set[T]) Prepend(item T) error {
	items, err := s.All()
	if err != nil {
		return err
	}
	return s.tx.Save(s.name, append([]T{item}, items...))
}

// Replace swaps the element sharing item's key, keeping its position.
func (s Set[T]) Replace(item T) error {
	items, err := s.All()
	if err != nil {
		return err
	}
	id := s.key(item)
	for i := range items {
		if s.key(items[i]) == id {
			items[i] = item
			return s.tx.Save(s.name, items)
		}
	}
	return ErrNotInCollection
}

// Singleton is a typed view of a single-value collection.
type Singleton[T any] struct {
	tx   Tx
	name string
}

// Get returns the stored value and whether one exists.
func (s Singleton[T]) Get() (T, bool, error) {
	var v T
	found, err := s.tx.Load(s.name, &v)
	return v, found, err
}

// Put replaces the stored value.
func (s Singleton[T]) Put(v T) error {
	return s.tx.Save(s.name, v)
}

// Clear removes the stored value.
func (s Singleton[T]) Clear() error {
	return s.tx.Clear(s.name)
}

// Users is the users collection.
func Users(tx Tx) Set[model.User] {
	return NewSet(tx, CollectionUsers, func(u model.User) string { return u.ID })
}

// Policies is the policies collection.
func Policies(tx Tx) Set[model.Policy] {
	return NewSet(tx, CollectionPolicies, func(p model.Policy) string { return p.ID })
}

// Payments is the payments collection.
func Payments(tx Tx) Set[model.PaymentRecord] {
	return NewSet(tx, CollectionPayments, func(p model.PaymentRecord) string { return p.ID })
}

// MIDSubmissions is the Motor Insurance Database submissions collection.
func MIDSubmissions(tx Tx) Set[model.MIDSubmission] {
	return NewSet(tx, CollectionMIDSubmissions, func(m model.MIDSubmission) string { return m.ID })
}

// VehicleLogs is the vehicle lookup log collection.
func VehicleLogs(tx Tx) Set[model.VehicleLookupLog] {
	return NewSet(tx, CollectionVehicleLogs, func(l model.VehicleLookupLog) string { return l.ID })
}

// AuditLogs is the audit log collection, most recent first.
func AuditLogs(tx Tx) Set[model.AuditLog] {
	return NewSet(tx, CollectionAuditLogs, func(l model.AuditLog) string { return l.ID })
}

// ActivityLogs is the administrator activity collection, most recent first.
func ActivityLogs(tx Tx) Set[model.AdminActivityLog] {
	return NewSet(tx, CollectionActivityLogs, func(l model.AdminActivityLog) string { return l.ID })
}

// RiskConfig is the pricing tunables singleton.
func RiskConfig(tx Tx) Singleton[model.RiskConfig] {
	return Singleton[model.RiskConfig]{tx: tx, name: CollectionRiskConfig}
}

// SessionSlot returns the singleton backing a session slot.
func SessionSlot(tx Tx, slot model.SessionSlot) Singleton[model.Session] {
	name := CollectionSession
	if slot == model.SessionSlotAdmin {
		name = CollectionAdminSession
	}
	return Singleton[model.Session]{tx: tx, name: name}
}

// ReadAll reads a committed list-shaped collection outside a unit of work.
func ReadAll[T any](ctx context.Context, store Store, name string) ([]T, error) {
	var items []T
	if _, err := store.Read(ctx, name, &items); err != nil {
		return nil, err
	}
	return items, nil
}
