// Package push delivers notifications to mobile devices through a push
// provider. The only production provider is Firebase Cloud Messaging (HTTP v1);
// Disabled stands in when no credentials are configured.
package push

import (
	"context"
	"errors"
)

var (
	// ErrDisabled is returned by Disabled for every send.
	ErrDisabled = errors.New("push provider disabled")

	// ErrUnregistered means the provider no longer accepts the device token.
	ErrUnregistered = errors.New("device token unregistered")
)

// Message is the payload delivered to a single device.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Provider sends one message to one device token and returns the
// provider-issued delivery identifier. An empty identifier with a nil error
// means the provider accepted the message without naming it.
type Provider interface {
	Send(ctx context.Context, token string, msg Message) (string, error)
}

// Disabled is a Provider that refuses every message.
type Disabled struct{}

// Send always fails with ErrDisabled.
func (Disabled) Send(context.Context, string, Message) (string, error) {
	return "", ErrDisabled
}

// Redact shortens a device token for logs.
func Redact(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:8] + "***"
}
