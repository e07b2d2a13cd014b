package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	moerr "github.com/matzehuels/moto/pkg/errors"
)

// Problem is an RFC 7807 error body.
type Problem struct {
	Title     string     `json:"title"`
	Status    int        `json:"status"`
	Code      moerr.Code `json:"code,omitempty"`
	Detail    string     `json:"detail,omitempty"`
	Instance  string     `json:"instance,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code moerr.Code) int {
	switch code {
	case moerr.ErrCodeInvalidInput, moerr.ErrCodeInvalidEmail, moerr.ErrCodeInvalidPassword,
		moerr.ErrCodeInvalidWebsite, moerr.ErrCodeInvalidStats, moerr.ErrCodeEmptyAudit:
		return http.StatusBadRequest
	case moerr.ErrCodeUnauthorized, moerr.ErrCodeSessionExpired, moerr.ErrCodeSessionNotFound:
		return http.StatusUnauthorized
	case moerr.ErrCodeNotFound:
		return http.StatusNotFound
	case moerr.ErrCodeConflict:
		return http.StatusConflict
	case moerr.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case moerr.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case moerr.ErrCodeNetwork, moerr.ErrCodeAuditFailed:
		return http.StatusBadGateway
	case moerr.ErrCodeAuditMissing:
		return http.StatusServiceUnavailable
	case moerr.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, code moerr.Code, detail string) {
	p := Problem{
		Title:     http.StatusText(status),
		Status:    status,
		Code:      code,
		Detail:    detail,
		Instance:  r.URL.Path,
		RequestID: w.Header().Get("X-Request-ID"),
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(p)
}

// writeError reports err to the client. Internal failures are logged and
// answered without their cause.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := moerr.GetCode(err)
	status := StatusFor(code)

	var rl *moerr.RateLimitedError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter))
	}

	detail := moerr.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if code == "" || code == moerr.ErrCodeInternal || code == moerr.ErrCodeStore {
			detail = "internal error"
		}
	}
	writeProblem(w, r, status, code, detail)
}
