package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRecordStatus is the settlement state of a premium payment.
type PaymentRecordStatus string

const (
	PaymentRecordPaid     PaymentRecordStatus = "Paid"
	PaymentRecordSuccess  PaymentRecordStatus = "Success"
	PaymentRecordPending  PaymentRecordStatus = "Pending"
	PaymentRecordFailed   PaymentRecordStatus = "Failed"
	PaymentRecordRefunded PaymentRecordStatus = "Refunded"
)

// PaymentRecord is a premium payment against a policy.
type PaymentRecord struct {
	ID             string              `json:"id"`
	PolicyID       string              `json:"policy_id"`
	ClientID       string              `json:"client_id"`
	Amount         decimal.Decimal     `json:"amount"`
	Status         PaymentRecordStatus `json:"status"`
	Timestamp      time.Time           `json:"timestamp"`
	Method         string              `json:"method"`
	PaymentType    string              `json:"payment_type"`
	TransactionRef string              `json:"transaction_ref"`
}

// ClaimStatus is the handling state of a claim.
type ClaimStatus string

const (
	ClaimUnderReview   ClaimStatus = "Under Review"
	ClaimApproved      ClaimStatus = "Approved"
	ClaimRejected      ClaimStatus = "Rejected"
	ClaimDocsRequested ClaimStatus = "Docs Requested"
	ClaimSettled       ClaimStatus = "Settled"
	ClaimClosed        ClaimStatus = "Closed"
)

// ClaimRecord is a claim raised against a policy.
type ClaimRecord struct {
	ID             string          `json:"id"`
	PolicyID       string          `json:"policy_id"`
	ClientID       string          `json:"client_id"`
	ClaimReference string          `json:"claim_reference"`
	DateOfIncident string          `json:"date_of_incident"`
	Status         ClaimStatus     `json:"status"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	Notes          string          `json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TicketStatus is the state of a support ticket.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "Open"
	TicketInProgress TicketStatus = "In Progress"
	TicketResolved   TicketStatus = "Resolved"
	TicketClosed     TicketStatus = "Closed"
)

// SupportTicket is a customer inquiry.
type SupportTicket struct {
	ID            string       `json:"id"`
	ClientID      string       `json:"client_id"`
	Subject       string       `json:"subject"`
	Type          string       `json:"type"`
	Status        TicketStatus `json:"status"`
	Priority      RiskLevel    `json:"priority"`
	AssignedAgent string       `json:"assigned_agent,omitempty"`
	LastMessage   string       `json:"last_message"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// MIDStatus is the state of a Motor Insurance Database submission.
type MIDStatus string

const (
	MIDPending  MIDStatus = "Pending"
	MIDSuccess  MIDStatus = "Success"
	MIDFailed   MIDStatus = "Failed"
	MIDRetrying MIDStatus = "Retrying"
)

// MIDSubmission records the registration of an insured vehicle with the MID.
type MIDSubmission struct {
	ID            string     `json:"id"`
	PolicyID      string     `json:"policy_id"`
	VRM           string     `json:"vrm"`
	Status        MIDStatus  `json:"status"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	ResponseData  string     `json:"response_data,omitempty"`
	RetryCount    int        `json:"retry_count"`
}

// LookupSource tags where a vehicle lookup was answered from.
type LookupSource string

const (
	LookupSourceAPI           LookupSource = "API"
	LookupSourceCache         LookupSource = "Cache"
	LookupSourceIntelligence  LookupSource = "Intelligence"
	LookupSourceManual        LookupSource = "Manual"
	LookupSourceAuthoritative LookupSource = "Authoritative"
)

// VehicleLookupLog records one registration or VIN lookup attempt.
type VehicleLookupLog struct {
	ID           string       `json:"id"`
	Registration string       `json:"registration,omitempty"`
	VIN          string       `json:"vin,omitempty"`
	Make         string       `json:"make"`
	Model        string       `json:"model"`
	Year         string       `json:"year"`
	Source       LookupSource `json:"source"`
	Timestamp    time.Time    `json:"timestamp"`
	Success      bool         `json:"success"`
	Error        string       `json:"error,omitempty"`
}
