package account

import "watchpost/internals/modules/notify"

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LogInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LogInResponse struct {
	AccountID   string `json:"account_id"`
	AccessToken string `json:"access_token"`
}

type ProfileResponse struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Email                string          `json:"email"`
	NotificationSettings notify.Settings `json:"notification_settings"`
}

type UpdateNotificationSettingsRequest struct {
	Settings notify.Settings `json:"settings"`
}
