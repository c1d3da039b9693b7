// Package user defines the account record used for authentication
// and URL ownership.
package user

// User represents a registered account.
type User struct {
	// ID is the unique random identifier of the user.
	ID string `json:"id"`

	// Username is unique among all users.
	Username string `json:"username"`

	// Email is unique among all users.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the password. It never leaves the server.
	PasswordHash string `json:"-"`
}
