package api

import (
	"encoding/json"
	"errors"
	"net/http"

	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
	flowio "github.com/matzehuels/flowgraph/pkg/io"
	"github.com/matzehuels/flowgraph/pkg/validate"
)

// issue is one payload problem in an error response.
type issue struct {
	Code    ferrors.Code `json:"code"`
	Field   string       `json:"field,omitempty"`
	Message string       `json:"message"`
}

// errorBody is the JSON body of every non-2xx response.
type errorBody struct {
	Code       ferrors.Code        `json:"code"`
	Message    string              `json:"message"`
	Field      string              `json:"field,omitempty"`
	Issues     []issue             `json:"issues,omitempty"`
	Violations validate.Violations `json:"violations,omitempty"`
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var de *flowio.DeserializeError
	if errors.As(err, &de) {
		return http.StatusUnprocessableEntity
	}
	e, ok := ferrors.As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Code {
	case ferrors.ErrCodeUnknownType, ferrors.ErrCodeUnknownNode, ferrors.ErrCodeUnknownEdge, ferrors.ErrCodeNotFound:
		return http.StatusNotFound
	case ferrors.ErrCodeNotActivatable:
		return http.StatusConflict
	case ferrors.ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// bodyFor renders err as a response body.
func bodyFor(err error) errorBody {
	var de *flowio.DeserializeError
	if errors.As(err, &de) {
		b := errorBody{
			Code:    ferrors.ErrCodeInvalidPayload,
			Message: "payload has problems",
			Issues:  make([]issue, len(de.Issues)),
		}
		for i, is := range de.Issues {
			b.Issues[i] = issue{Code: is.Code, Field: is.Field, Message: is.Message}
		}
		return b
	}
	e, ok := ferrors.As(err)
	if !ok {
		return errorBody{Code: ferrors.ErrCodeInternal, Message: "internal error"}
	}
	b := errorBody{Code: e.Code, Message: e.Message, Field: e.Field}
	var vs validate.Violations
	if errors.As(err, &vs) {
		b.Violations = vs
	}
	return b
}

// fail answers a request with the error response for err. Server errors
// are logged; client errors are not.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeError(w, status, bodyFor(err))
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"code":"INTERNAL_ERROR","message":"encode response"}`, http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, data)
}

func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
	_, _ = w.Write([]byte("\n"))
}
