package model

import "time"

type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationPending    VerificationStatus = "pending"
	VerificationVerified   VerificationStatus = "verified"
	VerificationRejected   VerificationStatus = "rejected"
)

var VerificationStatuses = []VerificationStatus{
	VerificationUnverified,
	VerificationPending,
	VerificationVerified,
	VerificationRejected,
}

func (s VerificationStatus) Valid() bool {
	for _, v := range VerificationStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s VerificationStatus) String() string {
	return string(s)
}

type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// User is the authoritative user record. Verification is nil when the field
// was never set, which is different from VerificationUnverified.
type User struct {
	ID           string              `json:"id" bson:"_id"`
	Role         Role                `json:"role" bson:"role"`
	Verification *VerificationStatus `json:"verification,omitempty" bson:"verification,omitempty"`
}

func (u *User) HasVerification() bool {
	return u.Verification != nil && *u.Verification != ""
}

type PendingVerification struct {
	UserID      string    `json:"user_id" bson:"_id"`
	RequestedAt time.Time `json:"requested_at" bson:"requested_at"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

type StatusUpdateResult struct {
	Success bool               `json:"success"`
	UserID  string             `json:"user_id"`
	Status  VerificationStatus `json:"status"`
}

type SyncResult struct {
	UpdatedCount int `json:"updated_count"`
	Batches      int `json:"batches"`
	Skipped      int `json:"skipped"`
}
