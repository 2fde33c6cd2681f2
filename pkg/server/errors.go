package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	placementerrors "github.com/placement-tools/placementctl/pkg/errors"
	"github.com/placement-tools/placementctl/pkg/serializer"
)

// ErrorResponse is the JSON error body returned by every failing endpoint.
type ErrorResponse struct {
	Code      string         `json:"code" yaml:"code"`
	Message   string         `json:"message" yaml:"message"`
	Details   map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	RequestID string         `json:"requestId" yaml:"requestId"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Retryable bool           `json:"retryable" yaml:"retryable"`
}

// WriteError writes an error response for a CodedError or plain error,
// deriving status and retryability from the code.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	code := placementerrors.CodeOf(err)
	WriteErrorCode(w, r, code, err.Error())
}

// WriteErrorCode writes an error response with an explicit code and message.
func WriteErrorCode(w http.ResponseWriter, r *http.Request, code placementerrors.ErrorCode, message string) {
	requestID, _ := r.Context().Value(contextKeyRequestID).(string)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	errResp := ErrorResponse{
		Code:      string(code),
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: placementerrors.RetryableFromCode(code),
	}

	serializer.RespondJSON(w, placementerrors.HTTPStatusFromCode(code), errResp)
}
