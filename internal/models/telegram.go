package models

import (
	"strings"

	"gopkg.in/telebot.v3"
)

type RequestUserTelegram struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LanguageCode string `json:"language_code"`
	IsBot        bool   `json:"is_bot"`
}

func ToRequestUserTelegram(user *telebot.User) *RequestUserTelegram {
	if user == nil {
		return &RequestUserTelegram{}
	}
	return &RequestUserTelegram{
		ID:           user.ID,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		LanguageCode: user.LanguageCode,
		IsBot:        user.IsBot,
	}
}

// DisplayName falls back to the username and then to a neutral word.
func (r *RequestUserTelegram) DisplayName() string {
	if name := strings.TrimSpace(r.FirstName); name != "" {
		return name
	}
	if r.Username != "" {
		return r.Username
	}
	return "there"
}
