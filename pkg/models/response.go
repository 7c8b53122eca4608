package models

import "strings"

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Response is the envelope every acknowledged event receives.
// success and fail carry Payload, error carries Message.
type Response struct {
	Status  string `json:"status"`
	Payload any    `json:"payload,omitempty"`
	Message string `json:"message,omitempty"`
}

func NormalizeStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case StatusSuccess:
		return StatusSuccess
	case StatusFail:
		return StatusFail
	default:
		return StatusError
	}
}

func (r Response) IsSuccess() bool {
	return NormalizeStatus(r.Status) == StatusSuccess
}

func (r Response) IsFail() bool {
	return NormalizeStatus(r.Status) == StatusFail
}
