package auth

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID  string `json:"user_id"` // Provider subject claim
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"` // Email is on the admin allow-list
}
