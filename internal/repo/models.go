package repo

import (
	"time"

	"github.com/google/uuid"
)

// Roles known to the platform.
const (
	RoleWoman          = "WOMAN"
	RolePolice         = "POLICE"
	RoleInfrastructure = "INFRASTRUCTURE"
	RoleCybersecurity  = "CYBERSECURITY"
	RoleEmergency      = "EMERGENCY"
	RoleAdmin          = "ADMIN"
)

// CommunityRoles are the roles that require a secret code and admin approval.
var CommunityRoles = []string{RolePolice, RoleInfrastructure, RoleCybersecurity, RoleEmergency}

// User represents an account of any role.
type User struct {
	ID           uuid.UUID
	Name         string
	Phone        string
	Email        string
	PasswordHash string
	Role         string
	Approved     bool
	Suspended    bool
	DocumentURL  *string
	CreatedAt    time.Time
}

// EmergencyContact belongs to a woman account and receives SOS alerts.
type EmergencyContact struct {
	ID        uuid.UUID
	WomanID   uuid.UUID
	Name      string
	Phone     string
	CreatedAt time.Time
}

// SOS event statuses.
const (
	SOSActive     = "ACTIVE"
	SOSResolved   = "RESOLVED"
	SOSFalseAlarm = "FALSE_ALARM"
)

// SOSEvent is one emergency alert. WomanName and WomanPhone are denormalized
// from the users table on read.
type SOSEvent struct {
	ID         uuid.UUID
	WomanID    uuid.UUID
	WomanName  string
	WomanPhone string
	Latitude   float64
	Longitude  float64
	Battery    int
	Status     string
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// LocationUpdate is one live position report for an active SOS event.
type LocationUpdate struct {
	ID        uuid.UUID
	SOSID     uuid.UUID
	Latitude  float64
	Longitude float64
	Battery   int
	CreatedAt time.Time
}

// Risk levels accepted for flagged zones.
var RiskLevels = []string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}

// FlaggedZone is a high-risk area marked by police.
type FlaggedZone struct {
	ID          uuid.UUID
	PoliceID    uuid.UUID
	PoliceName  string
	Latitude    float64
	Longitude   float64
	RiskLevel   string
	Reason      string
	Description string
	Active      bool
	CreatedAt   time.Time
	UnmarkedAt  *time.Time
}

// Issue statuses.
const (
	IssuePending   = "PENDING"
	IssueAccepted  = "ACCEPTED"
	IssueCompleted = "COMPLETED"
)

// Issue is reported by police and worked by infrastructure.
type Issue struct {
	ID           uuid.UUID
	ReporterID   uuid.UUID
	ReporterName string
	AssigneeID   *uuid.UUID
	AssigneeName *string
	Description  string
	Location     string
	Latitude     *float64
	Longitude    *float64
	Status       string
	CreatedAt    time.Time
	AcceptedAt   *time.Time
	CompletedAt  *time.Time
}

// Chat types.
const (
	ChatPolice             = "POLICE"
	ChatEmergencyBroadcast = "EMERGENCY_BROADCAST"
)

// ChatMessage is one message in the police chat or the emergency broadcast.
type ChatMessage struct {
	ID         uuid.UUID
	SenderID   uuid.UUID
	SenderName string
	SenderRole string
	Text       string
	ChatType   string
	CreatedAt  time.Time
}

// AbuseRecord tracks SOS and fake-call usage per woman account.
type AbuseRecord struct {
	ID            uuid.UUID
	WomanID       uuid.UUID
	WomanName     string
	WomanPhone    string
	SOSCount      int
	FakeCallCount int
	Flagged       bool
	FlaggedReason *string
	UpdatedAt     time.Time
}

// Flagged-user report statuses.
const (
	FlagPending   = "PENDING"
	FlagReviewed  = "REVIEWED"
	FlagSuspended = "SUSPENDED"
)

// FlaggedUser is a report filed by cybersecurity for admin review.
type FlaggedUser struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	UserName      string
	UserPhone     string
	FlaggedByID   uuid.UUID
	FlaggedByName string
	Reason        string
	Status        string
	CreatedAt     time.Time
}

// RefreshToken models the refresh-token table.
type RefreshToken struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

// InsertRefreshTokenParams groups the columns written on insert.
type InsertRefreshTokenParams struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
