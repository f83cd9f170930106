package utils

import (
	"errors"
	"io"
	"net/http"

	"task-manager/logging"
	"task-manager/services"

	"github.com/bytedance/sonic"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_FAILED, Description: Failed to encode response: %v", err)
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// StatusFor maps an error kind to its HTTP status. Unknown errors are 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes {"message": ...}. Internal errors log the cause and add it
// under "error".
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	body := errorBody{Message: "Server error"}

	var appErr *services.AppError
	if errors.As(err, &appErr) && appErr.Msg != "" {
		body.Message = appErr.Msg
	}

	if status == http.StatusInternalServerError {
		cause := err
		if appErr != nil && appErr.Err != nil {
			cause = appErr.Err
		}
		body.Error = cause.Error()
		logging.Logger.Errorf("Event ID: REQUEST_FAILED, Description: %s %s failed: %v", r.Method, r.URL.Path, err)
	} else {
		logging.Logger.Infof("Event ID: REQUEST_REJECTED, Description: %s %s rejected with %d: %s", r.Method, r.URL.Path, status, body.Message)
	}

	WriteJSON(w, status, body)
}

// DecodeJSON reads a JSON request body into v. Malformed bodies are BadRequest.
func DecodeJSON(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return &services.AppError{Kind: services.ErrBadRequest, Msg: "Invalid request body"}
	}
	if len(data) == 0 {
		return &services.AppError{Kind: services.ErrBadRequest, Msg: "Request body is required"}
	}
	if err := sonic.ConfigStd.Unmarshal(data, v); err != nil {
		return &services.AppError{Kind: services.ErrBadRequest, Msg: "Invalid request body", Err: err}
	}
	return nil
}
