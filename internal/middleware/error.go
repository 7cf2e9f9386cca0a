package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"mcp-directory/internal/data"
	"mcp-directory/internal/logger"
	"net/http"
)

// AppError represents a custom error type for the application.
type AppError struct {
	Error   error
	Message string
	Code    int
}

// AppHandler is a custom handler function type that returns an AppError.
type AppHandler func(http.ResponseWriter, *http.Request) *AppError

// errorBody is the JSON document written for every failed request.
type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// FromError maps a service error to an AppError. Lookups that matched nothing
// become 404; anything else is an internal error whose detail stays in the log.
func FromError(err error, notFoundMessage string) *AppError {
	if errors.Is(err, data.ErrNotFound) {
		return &AppError{Error: err, Message: notFoundMessage, Code: http.StatusNotFound}
	}
	return &AppError{Error: err, Message: "Internal Server Error", Code: http.StatusInternalServerError}
}

// BadRequest reports a client error.
func BadRequest(err error, message string) *AppError {
	return &AppError{Error: err, Message: message, Code: http.StatusBadRequest}
}

// Error is a middleware that converts handler errors into JSON error responses.
func Error(log logger.Logger) func(AppHandler) http.Handler {
	return func(next AppHandler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("%v", rec)
					}
					log.Error(err, "Panic recovered")
					WriteError(w, http.StatusInternalServerError, "Internal Server Error")
				}
			}()

			appErr := next(w, r)
			if appErr == nil {
				return
			}
			fields := map[string]interface{}{"status": appErr.Code, "path": r.URL.Path}
			if appErr.Code >= http.StatusInternalServerError {
				log.With(fields).Error(appErr.Error, appErr.Message)
			} else {
				log.With(fields).Debug(appErr.Message)
			}
			WriteError(w, appErr.Code, appErr.Message)
		})
	}
}

// WriteError writes a JSON error document with the given status.
func WriteError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorBody{Error: message, Status: code})
}
