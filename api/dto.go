/*
dto.go - Request/response data structures

PURPOSE:
  JSON shapes for the HTTP API. Structs here are serialization-only;
  conversion to and from domain types happens in handlers.go. Point and
  hour amounts travel as JSON numbers, already rounded to 2 decimals by
  the engine.
*/
package api

// =============================================================================
// MEMBERS
// =============================================================================

type CreateMemberRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Profile string `json:"profile"` // member | employee | association
}

type MemberDTO struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Email               string  `json:"email,omitempty"`
	Profile             string  `json:"profile"`
	Balance             float64 `json:"balance"`
	BalanceExpiringSoon float64 `json:"balance_expiring_soon"`
	NextExpiry          *string `json:"next_expiry,omitempty"`
	VolunteerHoursYear  float64 `json:"volunteer_hours_year"`
}

type BalanceDTO struct {
	MemberID            string  `json:"member_id"`
	Balance             float64 `json:"balance"`
	BalanceExpiringSoon float64 `json:"balance_expiring_soon"`
	NextExpiry          *string `json:"next_expiry,omitempty"`
	VolunteerHoursYear  float64 `json:"volunteer_hours_year"`
	AsOf                string  `json:"as_of"`
}

// =============================================================================
// SHIFTS
// =============================================================================

type CreateShiftRequest struct {
	MemberID string `json:"member_id"`
	Start    string `json:"start"` // RFC3339
	End      string `json:"end"`
}

type ShiftDTO struct {
	ID       string  `json:"id"`
	MemberID string  `json:"member_id"`
	Start    string  `json:"start"`
	End      string  `json:"end"`
	Hours    float64 `json:"hours"`
	Points   float64 `json:"points"`
	DayType  string  `json:"day_type"`
}

// =============================================================================
// VOLUNTEERING
// =============================================================================

type CreateActionRequest struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Points float64 `json:"points"`
}

type ActionDTO struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Points float64 `json:"points"`
}

type CreateDeclarationRequest struct {
	MemberID   string  `json:"member_id"`
	ActionID   string  `json:"action_id,omitempty"` // empty for free-form hours
	Hours      float64 `json:"hours,omitempty"`
	DeclaredAt string  `json:"declared_at"` // YYYY-MM-DD
}

type DeclarationDTO struct {
	ID         string  `json:"id"`
	MemberID   string  `json:"member_id"`
	ActionID   string  `json:"action_id,omitempty"`
	Hours      float64 `json:"hours"`
	Points     float64 `json:"points"`
	DeclaredAt string  `json:"declared_at"`
	Confirmed  bool    `json:"confirmed"`
}

// =============================================================================
// TRANSFERS
// =============================================================================

type CreateTransferRequest struct {
	From   string  `json:"from,omitempty"` // empty = association
	To     string  `json:"to,omitempty"`   // empty = association
	Amount float64 `json:"amount"`
	Type   string  `json:"type"` // peer_transfer | association_payment | admin_correction
	Memo   string  `json:"memo,omitempty"`
	Date   string  `json:"date,omitempty"` // RFC3339 or YYYY-MM-DD; defaults to now
}

type TransactionDTO struct {
	ID         string  `json:"id"`
	From       string  `json:"from,omitempty"`
	To         string  `json:"to,omitempty"`
	Amount     float64 `json:"amount"`
	Type       string  `json:"type"`
	Memo       string  `json:"memo,omitempty"`
	OccurredAt string  `json:"occurred_at"`
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

type CreateSubscriptionRequest struct {
	ID            string  `json:"id"`
	MemberID      string  `json:"member_id"`
	Type          string  `json:"type"`
	Start         string  `json:"start"`  // YYYY-MM-DD
	Expiry        string  `json:"expiry"` // YYYY-MM-DD
	EntriesLeft   int     `json:"entries_left"`
	RoomHoursLeft float64 `json:"room_hours_left"`
}

type SubscriptionDTO struct {
	ID            string  `json:"id"`
	MemberID      string  `json:"member_id"`
	Type          string  `json:"type"`
	Start         string  `json:"start"`
	Expiry        string  `json:"expiry"`
	EntriesLeft   int     `json:"entries_left"`
	RoomHoursLeft float64 `json:"room_hours_left"`
	Active        bool    `json:"active"`
}

type NotificationDTO struct {
	ID        string `json:"id"`
	MemberID  string `json:"member_id"`
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	CreatedAt string `json:"created_at"`
}

// =============================================================================
// ADMIN / ERRORS
// =============================================================================

type RecalculateAllResponse struct {
	Recalculated int `json:"recalculated"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
