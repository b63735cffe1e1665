package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error types reported in the "type" field of the error envelope.
const (
	TypeInvalidRequest = "invalid_request_error"
	TypeServer         = "server_error"
)

// ErrNotFound is reported for any route other than the chat completions endpoint.
var ErrNotFound = errors.New("Not found")

// ValidationError reports a request body that decoded but has the wrong shape.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "Invalid request: " + e.Reason
}

// ParseError reports a request body that is not valid JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse request body: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SpawnError reports that the external CLI could not be started.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("Failed to spawn %s CLI: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ProcessError reports that the external CLI exited with a non-zero status.
type ProcessError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s CLI exited with code %d: %s", e.Command, e.ExitCode, e.Stderr)
}

// Classify maps err onto an HTTP status and envelope type. Only validation
// failures are client errors; malformed JSON is reported as a server error.
func Classify(err error) (int, string) {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, TypeInvalidRequest
	case errors.As(err, &verr):
		return http.StatusBadRequest, TypeInvalidRequest
	default:
		return http.StatusInternalServerError, TypeServer
	}
}

type errorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type jsonError struct {
	Error errorBody `json:"error"`
}

// WriteJSONError writes the {"error":{"message","type"}} envelope with statusCode.
func WriteJSONError(w http.ResponseWriter, statusCode int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	body := jsonError{
		Error: errorBody{Message: message, Type: errType},
	}
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError classifies err and writes the matching envelope.
func WriteError(w http.ResponseWriter, err error) {
	status, errType := Classify(err)
	WriteJSONError(w, status, errType, err.Error())
}
