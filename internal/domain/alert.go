package domain

import "errors"

var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrRecognition      = errors.New("speech recognition failed")
	ErrNetwork          = errors.New("tutor unreachable")
	ErrMalformedReply   = errors.New("malformed tutor reply")
)

type AlertKind string

const (
	AlertPermissionDenied AlertKind = "permission_denied"
	AlertNetwork          AlertKind = "network"
)

type Alert struct {
	Kind    AlertKind
	Title   string
	Message string
}

func PermissionAlert() Alert {
	return Alert{
		Kind:    AlertPermissionDenied,
		Title:   "Microphone unavailable",
		Message: "Microphone access was refused. You can still type messages.",
	}
}

func NetworkAlert() Alert {
	return Alert{
		Kind:    AlertNetwork,
		Title:   "Connection error",
		Message: "Failed to connect to the tutor. Please try again.",
	}
}
