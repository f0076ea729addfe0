package account

import (
	"watchpost/internals/modules/notify"

	"github.com/google/uuid"
)

type Account struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string

	// NotificationSettings is the per-channel config bag the
	// dispatcher consults, stored as jsonb.
	NotificationSettings notify.Settings
}

type CreateAccountCmd struct {
	Name     string
	Email    string
	Password string
}

type LogInCmd struct {
	Email    string
	Password string
}

type LogInResult struct {
	AccountID   uuid.UUID
	AccessToken string
}
