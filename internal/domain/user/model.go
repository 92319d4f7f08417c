package user

import "time"

// User is a back-office account.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   []byte    `json:"-"`
	CanManageUsers bool      `json:"can_manage_users"`
	CreatedAt      time.Time `json:"created_at"`
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
