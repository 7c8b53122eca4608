package rpckit

import (
	"shoplist/go-backend/pkg/models"
)

// Success wraps a result payload.
func Success(payload any) models.Response {
	return models.Response{Status: models.StatusSuccess, Payload: payload}
}

// Fail wraps a client-correctable reason map.
func Fail(reasons map[string]string) models.Response {
	if reasons == nil {
		reasons = map[string]string{}
	}
	return models.Response{Status: models.StatusFail, Payload: reasons}
}

func FailField(field, reason string) models.Response {
	return Fail(map[string]string{field: reason})
}

func FailValidation(report models.ValidationReport) models.Response {
	return Fail(report.Reasons())
}

// Error reports an unexpected fault by message only.
func Error(err error) models.Response {
	message := "internal error"
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	return models.Response{Status: models.StatusError, Message: message}
}

func ErrorMessage(message string) models.Response {
	if message == "" {
		message = "internal error"
	}
	return models.Response{Status: models.StatusError, Message: message}
}
