package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dumensel/payment-service/internal/application"
)

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string                   `json:"code"`
	Message string                   `json:"message"`
	Fields  []application.FieldError `json:"fields,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(SuccessResponse{
		Success: true,
		Data:    data,
	})
}

// WriteError maps application errors to HTTP responses. Internal detail
// stays in the log; the client sees the code and message only.
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	statusCode, response := BuildErrorResponse(err)

	if statusCode >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

func BuildErrorResponse(err error) (int, ErrorResponse) {
	if svcErr, ok := application.IsServiceError(err); ok {
		return svcErr.HTTPStatus, ErrorResponse{
			Success: false,
			Error: ErrorDetail{
				Code:    svcErr.Code,
				Message: svcErr.Message,
				Fields:  svcErr.Fields,
			},
		}
	}

	if gwErr, ok := application.IsGatewayError(err); ok {
		// Only the status probe surfaces gateway errors directly; the
		// provider being unreachable is a bad-gateway condition here.
		return http.StatusBadGateway, ErrorResponse{
			Success: false,
			Error: ErrorDetail{
				Code:    gwErr.Code,
				Message: gwErr.Message,
			},
		}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    application.ErrCodeInternal,
			Message: "An internal error occurred",
		},
	}
}
