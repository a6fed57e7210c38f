package domain

// Identity is an authenticated caller as established by the token verifier.
// DisplayName is decoration only and never authoritative.
type Identity struct {
	UserID      string
	DisplayName string
}
