package model

import "time"

type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleMember Role = "MEMBER"
)

// InviteTTL is how long an invite stays acceptable after creation.
const InviteTTL = 7 * 24 * time.Hour

type Household struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type HouseholdMember struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	UserID      int64     `json:"user_id"`
	Role        Role      `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
	User        *User     `json:"user,omitempty"`
}

type HouseholdInvite struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	HouseholdID   int64     `json:"household_id"`
	HouseholdName string    `json:"household_name,omitempty"`
	InvitedBy     int64     `json:"invited_by"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// HouseholdDetail is a household together with its members and pending invites.
type HouseholdDetail struct {
	Household
	Members []HouseholdMember `json:"members"`
	Invites []HouseholdInvite `json:"invites"`
}

// DefaultHouseholdName names the household created for a user who has none.
func DefaultHouseholdName(userName string) string {
	if userName == "" {
		return "My Household"
	}
	return userName + "'s Household"
}
