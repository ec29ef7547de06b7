package models

// User is the ledger's view of an account.
//
// Accounts are owned by the authentication subsystem. Inviting someone by
// email creates a "shell" user that has never signed up; shell users can be
// assigned to expenses but never receive push notifications.
type User struct {
	// ID is the unique identifier for the user.
	ID string

	// Email is the user's email address (unique).
	Email string

	// FirstName is used in notification copy ("Ana assigned you ...").
	FirstName string

	// Registered is false for shell users created by an invite.
	Registered bool

	// CreatedAt is the Unix timestamp when the user was created.
	CreatedAt int64
}

// DisplayName returns the name shown to other users in notifications.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Email
}
