// ABOUTME: Turn represents a single message in a conversation
// ABOUTME: Turns are totally ordered per conversation by sequence number
package models

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies who produced a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole converts a string into a Role
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAssistant:
		return RoleAssistant, nil
	}
	return "", fmt.Errorf("%w: unknown role %q (want user or assistant)", ErrValidation, s)
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn represents one message in a conversation
type Turn struct {
	ConversationID string    `json:"conversation_id" yaml:"conversation_id"`
	Role           Role      `json:"role" yaml:"role"`
	Text           string    `json:"text" yaml:"text"`
	Sequence       int64     `json:"sequence" yaml:"sequence"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
}

// AppendOutcome distinguishes the first turn of a conversation from later ones
type AppendOutcome int

const (
	// Created means the append implicitly created the conversation
	Created AppendOutcome = iota + 1
	// Appended means the conversation already had turns
	Appended
)

func (o AppendOutcome) String() string {
	switch o {
	case Created:
		return "created"
	case Appended:
		return "appended"
	}
	return "unknown"
}

// AppendResult is the stored turn and whether it created its conversation
type AppendResult struct {
	Turn    Turn          `json:"turn"`
	Outcome AppendOutcome `json:"-"`
}

// Created reports whether this append started a new conversation
func (r AppendResult) Created() bool {
	return r.Outcome == Created
}
