package model

import "time"

// Role distinguishes customers from administrators.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// UserStatus is the regulatory status of a user account.
type UserStatus string

const (
	UserStatusActive            UserStatus = "Active"
	UserStatusBlocked           UserStatus = "Blocked"
	UserStatusSuspended         UserStatus = "Suspended"
	UserStatusFrozen            UserStatus = "Frozen"
	UserStatusDeleted           UserStatus = "Deleted"
	UserStatusLocked            UserStatus = "Locked"
	UserStatusRemoved           UserStatus = "Removed"
	UserStatusPendingValidation UserStatus = "Pending Validation"
	UserStatusValidated         UserStatus = "Validated"
	UserStatusInactive          UserStatus = "Inactive"
	UserStatusPending           UserStatus = "Pending"
)

var userStatuses = map[UserStatus]struct{}{
	UserStatusActive: {}, UserStatusBlocked: {}, UserStatusSuspended: {}, UserStatusFrozen: {},
	UserStatusDeleted: {}, UserStatusLocked: {}, UserStatusRemoved: {}, UserStatusPendingValidation: {},
	UserStatusValidated: {}, UserStatusInactive: {}, UserStatusPending: {},
}

// Valid reports whether s is a known user status.
func (s UserStatus) Valid() bool {
	_, ok := userStatuses[s]
	return ok
}

// AccountState mirrors the coarse access state shown to the customer portal.
type AccountState string

const (
	AccountStateActive    AccountState = "active"
	AccountStateInactive  AccountState = "inactive"
	AccountStatePending   AccountState = "pending"
	AccountStateSuspended AccountState = "suspended"
)

// RiskLevel is the underwriting risk tier of a customer.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "Low"
	RiskLevelMedium   RiskLevel = "Medium"
	RiskLevelHigh     RiskLevel = "High"
	RiskLevelCritical RiskLevel = "Critical"
)

// Valid reports whether r is a known risk level.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelCritical:
		return true
	}
	return false
}

// KYCStatus is the identity verification state.
type KYCStatus string

const (
	KYCVerified KYCStatus = "VERIFIED"
	KYCPending  KYCStatus = "PENDING"
	KYCRejected KYCStatus = "REJECTED"
	KYCFailed   KYCStatus = "FAILED"
	KYCNone     KYCStatus = "NONE"
)

// Valid reports whether k is a known KYC status.
func (k KYCStatus) Valid() bool {
	switch k {
	case KYCVerified, KYCPending, KYCRejected, KYCFailed, KYCNone:
		return true
	}
	return false
}

// User represents a customer or administrator identity.
type User struct {
	ID             string       `json:"id"`
	ClientCode     string       `json:"client_code"`
	FirstName      string       `json:"first_name"`
	LastName       string       `json:"last_name"`
	Name           string       `json:"name"`
	Email          string       `json:"email"`
	PasswordHash   string       `json:"password_hash,omitempty"`
	Phone          string       `json:"phone,omitempty"`
	DOB            string       `json:"dob,omitempty"`
	AddressLine1   string       `json:"address_line1,omitempty"`
	AddressLine2   string       `json:"address_line2,omitempty"`
	City           string       `json:"city,omitempty"`
	County         string       `json:"county,omitempty"`
	Postcode       string       `json:"postcode,omitempty"`
	Role           Role         `json:"role"`
	Status         UserStatus   `json:"status"`
	ProfileEnabled bool         `json:"is_profile_enabled"`
	AccountState   AccountState `json:"account_state"`
	RiskLevel      RiskLevel    `json:"risk_level"`
	KYCStatus      KYCStatus    `json:"kyc_status"`
	InternalNotes  string       `json:"internal_notes,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	LastLogin      *time.Time   `json:"last_login,omitempty"`
}

// IsAdmin reports whether the user may hold an administrator session.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Public returns a copy safe to hand to clients and session slots.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// Admissible reports whether an account in status s may hold a session.
func (s UserStatus) Admissible() bool {
	switch s {
	case UserStatusBlocked, UserStatusSuspended, UserStatusFrozen, UserStatusDeleted,
		UserStatusLocked, UserStatusRemoved, UserStatusInactive:
		return false
	}
	return s.Valid()
}

// CanSignIn reports whether the user may hold slot. A disabled profile keeps
// the customer portal closed but not the administrator terminal.
func (u *User) CanSignIn(slot SessionSlot) bool {
	if u == nil || !u.Status.Admissible() {
		return false
	}
	if slot == SessionSlotCustomer && !u.ProfileEnabled {
		return false
	}
	if slot == SessionSlotAdmin && !u.IsAdmin() {
		return false
	}
	return true
}
