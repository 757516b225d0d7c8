package models

// TokenPayload is the identity carried by a verified bearer token.
// Tokens are issued by the external auth service; this backend only
// verifies them.
type TokenPayload struct {
	Email string
	Name  string
}
