package model

import "time"

// SessionSlot addresses one of the two independent identity slots.
type SessionSlot string

const (
	SessionSlotCustomer SessionSlot = "customer"
	SessionSlotAdmin    SessionSlot = "admin"
)

// Session is the identity held by a slot.
type Session struct {
	Slot      SessionSlot `json:"slot"`
	User      User        `json:"user"`
	StartedAt time.Time   `json:"started_at"`
}
