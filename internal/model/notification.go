package model

// Notification types.
const (
	NotificationRentalRequest   = "rental_request"
	NotificationRequestResponse = "request_response"
	NotificationTenantUpdate    = "tenant_update"
	NotificationPendingRequests = "pending_requests"
)

// Notification is a display-only event summary.  It is never stored in
// the database; see the notification package for the in-memory center.
type Notification struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Time    string         `json:"time"`
	Read    bool           `json:"read"`
	Data    map[string]any `json:"data,omitempty"`
}
