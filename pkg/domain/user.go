package domain

// UserRef identifies the user a session was issued for.
type UserRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
