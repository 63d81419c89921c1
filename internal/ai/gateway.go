// Package ai negotiates ephemeral realtime voice sessions with the upstream speech API.
package ai

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrMissingAPIKey is returned when a provider is used without credentials.
var ErrMissingAPIKey = errors.New("api key is not set")

// SessionConfig is the input to a realtime session request.
type SessionConfig struct {
	Voice        string `json:"voice"`
	Instructions string `json:"instructions"`
}

// Session is an issued realtime session. Raw is the upstream response, returned to the
// browser untouched; ID and ClientSecret are extracted for bookkeeping.
type Session struct {
	ID           string
	ClientSecret string
	ExpiresAt    int64
	Raw          json.RawMessage
}

// Provider is the interface realtime session providers implement.
type Provider interface {
	CreateSession(ctx context.Context, cfg SessionConfig) (Session, error)
	HealthCheck(ctx context.Context) error
}

// Voices by avatar.
const (
	VoiceDefault = "alloy"
	VoiceJin     = "coral"
	VoiceZhan    = "ash"
)

// VoiceForAvatar maps a tutor avatar to its synthesis voice.
func VoiceForAvatar(avatar string) string {
	switch avatar {
	case "jin":
		return VoiceJin
	case "zhan":
		return VoiceZhan
	default:
		return VoiceDefault
	}
}

// parseSession extracts the bookkeeping fields from an upstream session body.
func parseSession(body []byte) (Session, error) {
	var v struct {
		ID           string `json:"id"`
		ClientSecret struct {
			Value     string `json:"value"`
			ExpiresAt int64  `json:"expires_at"`
		} `json:"client_secret"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return Session{}, err
	}
	return Session{
		ID:           v.ID,
		ClientSecret: v.ClientSecret.Value,
		ExpiresAt:    v.ClientSecret.ExpiresAt,
		Raw:          json.RawMessage(body),
	}, nil
}
