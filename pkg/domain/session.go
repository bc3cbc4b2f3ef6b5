package domain

// AuthResult is returned by a successful login: an opaque bearer token and
// the user it was issued for.
type AuthResult struct {
	Token string  `json:"token"`
	User  UserRef `json:"user"`
}

// CredentialsRequest is the payload for an email + password login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ExternalTokenRequest is the payload for an email + tracker API token login.
type ExternalTokenRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}
