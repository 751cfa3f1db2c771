package model

// User is an authenticated account. The password hash is an Argon2id
// PHC-encoded string and never leaves the server.
type User struct {
	ID           string `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Name         string `json:"name,omitempty" db:"name"`
}
