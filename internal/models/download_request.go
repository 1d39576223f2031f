package models

import "time"

// RequestStatus captures the lifecycle states of a download request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusRefused  RequestStatus = "refused"
	StatusExpired  RequestStatus = "expired"
)

// Decision is an admin review outcome.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionRefuse Decision = "refuse"
)

// CanTransition reports whether moving between the two statuses is legal.
// Refused and expired are terminal; nothing re-enters pending.
func CanTransition(from, to RequestStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusAccepted || to == StatusRefused
	case StatusAccepted:
		return to == StatusExpired
	default:
		return false
	}
}

// IsTerminal reports whether no transition leaves the status.
func IsTerminal(status RequestStatus) bool {
	return status == StatusRefused || status == StatusExpired
}

// ValidStatus reports whether the value is a known lifecycle state.
func ValidStatus(status RequestStatus) bool {
	switch status {
	case StatusPending, StatusAccepted, StatusRefused, StatusExpired:
		return true
	default:
		return false
	}
}

// DownloadRequest is one export request submission. Rows are never deleted;
// the demandes table is the audit log. Token is never serialized.
type DownloadRequest struct {
	ID           string        `db:"id" json:"id"`
	Name         string        `db:"nom" json:"requesterName"`
	Organization string        `db:"structure" json:"organization"`
	Email        string        `db:"email" json:"email"`
	Reason       string        `db:"raison" json:"reason"`
	Status       RequestStatus `db:"statut" json:"status"`
	Token        *string       `db:"token" json:"-"`
	GrantedAt    *time.Time    `db:"granted_at" json:"grantedAt,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"createdAt"`
}

// DenialReason explains why the export gate is closed for an identity.
type DenialReason string

const (
	ReasonNotRequested DenialReason = "not_requested"
	ReasonPending      DenialReason = "pending"
	ReasonRefused      DenialReason = "refused"
	ReasonExpired      DenialReason = "expired"
)

// AuthorizationStatus is the policy engine's answer for one identity.
// Callers must not cache Authorized: the check has an expire-on-read side
// effect and the answer can flip between evaluations.
type AuthorizationStatus struct {
	Authorized       bool         `json:"authorized"`
	RemainingSeconds int64        `json:"remainingSeconds,omitempty"`
	Reason           DenialReason `json:"reason,omitempty"`
}
