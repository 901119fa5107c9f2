// Package services defines the business logic for the handoff state machine,
// chat listing, manual replies and the workflow-engine ingress. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrMissingTenant is returned when an operation is called without a
	// tenant (client) id.
	ErrMissingTenant = errors.New("clientId is required")

	// ErrMissingChat is returned when an operation is called without a chat id.
	ErrMissingChat = errors.New("chatId is required")

	// ErrInvalidMode is returned for a status outside {bot, human}.
	ErrInvalidMode = errors.New("status must be 'bot' or 'human'")

	// ErrEmptyContent is returned when a manual reply has no text.
	ErrEmptyContent = errors.New("content is required")

	// ErrNotHumanMode is returned when an operator tries to reply to a chat
	// that the bot is currently answering.
	ErrNotHumanMode = errors.New("chat is not in human mode")

	// ErrMissingPhone is returned when a phone lookup has no digits to match.
	ErrMissingPhone = errors.New("phoneNumber is required")

	// ErrChatNotFound indicates that the requested chat has neither a record
	// nor any messages for the tenant.
	ErrChatNotFound = errors.New("chat not found")
)
