// Package companion implements the realtime call client: the websocket
// session connection, the wire protocol envelopes, the conversation
// orchestrator, and the emotion model with its update gate.
package companion

import (
	"encoding/json"
	"fmt"

	"github.com/tomoai/tomo/pkg/jsontime"
)

// MessageType tags a protocol message.
type MessageType string

const (
	MessageAuth         MessageType = "auth"
	MessageAuthOK       MessageType = "auth_ok"
	MessageAudio        MessageType = "audio"
	MessageText         MessageType = "text"
	MessageStatus       MessageType = "status"
	MessageTurnComplete MessageType = "turn_complete"
	MessageInterrupted  MessageType = "interrupted"
	MessageControl      MessageType = "control"
	MessageError        MessageType = "error"
)

// Audio mime types fixed by the wire contract: 16 kHz up, 24 kHz down.
const (
	MimePCM16K = "audio/pcm;rate=16000"
	MimePCM24K = "audio/pcm;rate=24000"
)

// Message is the symmetric wire envelope. The payload shape is
// tag-specific.
type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp *jsontime.Milli `json:"timestamp,omitempty"`
}

// NewMessage builds a timestamped envelope around payload.
func NewMessage(typ MessageType, payload any) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("companion: marshal %s payload: %w", typ, err)
	}
	now := jsontime.Now()
	return &Message{Type: typ, Payload: raw, Timestamp: &now}, nil
}

// AuthPayload identifies the device when opening a session.
type AuthPayload struct {
	DeviceID    string `json:"device_id"`
	CharacterID string `json:"character_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Location    string `json:"location,omitempty"`
}

// AuthOKPayload carries the server-assigned identifiers.
type AuthOKPayload struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// AudioPayload carries one base64-encoded PCM chunk.
type AudioPayload struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
}

// TextPayload carries an utterance. Server frames also include the
// emotion classification for the utterance; pointer fields distinguish
// absent values from zeroes so missing fields fall back to the previous
// snapshot.
type TextPayload struct {
	Text      string   `json:"text"`
	Emotion   string   `json:"emotion,omitempty"`
	Valence   *float64 `json:"valence,omitempty"`
	Arousal   *float64 `json:"arousal,omitempty"`
	Intensity string   `json:"intensity,omitempty"`
}

// Status actions sent by the server while a tool runs.
const (
	StatusSearching = "searching"
	StatusDone      = "done"
)

// StatusPayload reports tool activity.
type StatusPayload struct {
	Action string `json:"action"`
	Tool   string `json:"tool,omitempty"`
}

// ControlAction values sent by the client.
const ControlEndSession = "end_session"

// ControlPayload carries a client control action.
type ControlPayload struct {
	Action string `json:"action"`
}

// ErrorPayload carries a server-reported error for display.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Speaker identifies who produced a transcript entry.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// TranscriptEntry is one immutable turn of the conversation.
type TranscriptEntry struct {
	Speaker Speaker
	Text    string
	Emotion string
}
