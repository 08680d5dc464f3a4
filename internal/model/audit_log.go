package model

import "time"

// EntityType classifies the target of an audit entry.
type EntityType string

const (
	EntityUser    EntityType = "USER"
	EntityPolicy  EntityType = "POLICY"
	EntityClaim   EntityType = "CLAIM"
	EntityPayment EntityType = "PAYMENT"
	EntitySystem  EntityType = "SYSTEM"
	EntityAdmin   EntityType = "ADMIN"
)

// Audit action codes.
const (
	ActionUserRegister      = "USER_REGISTER"
	ActionUserStatusChange  = "USER_STATUS_CHANGE"
	ActionProfileActivated  = "Profile Activated"
	ActionProfileDisabled   = "PROFILE_DISABLED"
	ActionUserKYCUpdate     = "USER_KYC_UPDATE"
	ActionUserRiskUpdate    = "USER_RISK_UPDATE"
	ActionUserNotesUpdate   = "USER_NOTES_UPDATE"
	ActionAdminProvisioned  = "ADMIN_PROVISIONED"
	ActionPolicyCreate      = "POLICY_CREATE"
	ActionPolicyStatus      = "STATUS_CHANGE"
	ActionPolicyRemove      = "POLICY_REMOVE"
	ActionPolicyNotesUpdate = "POLICY_NOTES_UPDATE"
	ActionPolicyRenewal     = "POLICY_RENEWAL_UPDATE"
	ActionRiskConfigUpdate  = "RISK_CONFIG_UPDATE"
	ActionMIDRetry          = "MID_RETRY"
)

// GenericActivityLabel is rendered for activity entries without a status pair.
const GenericActivityLabel = "global state mutation"

// AuditLog is an immutable record of one logical mutation.
type AuditLog struct {
	ID         string     `json:"id"`
	Timestamp  time.Time  `json:"timestamp"`
	ActorID    string     `json:"user_id"`
	ActorEmail string     `json:"user_email"`
	TargetID   string     `json:"target_id,omitempty"`
	Action     string     `json:"action"`
	Details    string     `json:"details"`
	Reason     string     `json:"reason,omitempty"`
	IPAddress  string     `json:"ip_address"`
	EntityType EntityType `json:"entity_type"`
}

// AdminActivityLog is the dashboard projection of a mutation.
type AdminActivityLog struct {
	ID             string    `json:"id"`
	AdminID        string    `json:"admin_id"`
	PolicyID       string    `json:"policy_id,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	Action         string    `json:"action_performed"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	NewStatus      string    `json:"new_status,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// HasStatusPair reports whether both sides of a status change were captured.
func (l AdminActivityLog) HasStatusPair() bool {
	return l.PreviousStatus != "" && l.NewStatus != ""
}

// Label renders the entry for dashboards.
func (l AdminActivityLog) Label() string {
	if !l.HasStatusPair() {
		return GenericActivityLabel
	}
	return l.Action + ": " + l.PreviousStatus + " -> " + l.NewStatus
}
