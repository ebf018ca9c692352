package models

// UsersCollection holds one document per user.
const (
	UsersCollection     = "users"
	ExpoPushTokensField = "expoPushTokens"
)

// UserTokens is the raw push-token field of one user document. Tokens is kept
// untyped because documents are written by clients and may hold anything.
type UserTokens struct {
	UserID string
	Tokens any
}
