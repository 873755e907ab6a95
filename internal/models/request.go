package models

import "time"

// RequestStatus is the lifecycle state of a game request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCompleted RequestStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// GameRequest is a user's request for a game to be added to the library.
type GameRequest struct {
	ID         int64         `json:"id"`
	PublicID   string        `json:"public_id"`
	GameName   string        `json:"game_name"`
	CatalogID  int64         `json:"catalog_id,omitempty"`
	CoverURL   string        `json:"cover_url,omitempty"`
	Genres     string        `json:"genres,omitempty"`
	Comment    string        `json:"comment,omitempty"`
	Status     RequestStatus `json:"status"`
	AdminNotes string        `json:"admin_notes,omitempty"`
	Requester  string        `json:"requester"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// GameRequestCreate is the payload accepted when opening a request.
type GameRequestCreate struct {
	GameName  string `json:"game_name" validate:"required,min=1,max=300"`
	CatalogID int64  `json:"catalog_id" validate:"gte=0"`
	CoverURL  string `json:"cover_url" validate:"omitempty,url"`
	Genres    string `json:"genres" validate:"max=500"`
	Comment   string `json:"comment" validate:"max=2000"`
}

// GameRequestUpdate carries an admin-side status or notes change. Nil
// fields are left untouched.
type GameRequestUpdate struct {
	Status     *RequestStatus `json:"status"`
	AdminNotes *string        `json:"admin_notes"`
}

// RequestGameStatus summarizes how a catalog game relates to existing
// requests, used by the frontend to decide whether "request" is offered.
type RequestGameStatus struct {
	IsAvailable       bool          `json:"is_available"`
	UserHasRequest    bool          `json:"user_has_request"`
	UserRequestStatus RequestStatus `json:"user_request_status,omitempty"`
	HasPendingRequest bool          `json:"has_pending_request"`
	CanRequest        bool          `json:"can_request"`
}

// AuditEntry records one administrative action on a request.
type AuditEntry struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}
