package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/spiritanimal-backend/internal/http/middleware"
	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
)

type APIError struct {
	Message     string `json:"message"`
	Code        string `json:"code,omitempty"`
	Kind        string `json:"kind,omitempty"`
	Remediation string `json:"remediation,omitempty"`
	// RequestID matches the X-Request-Id response header so a failed call can be
	// found in the request log.
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	kind := apierr.KindOf(err)
	if kind == "" {
		kind = apierr.KindInternal
	}
	c.Set(middleware.ErrorKindKey, string(kind))
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message:     msg,
			Code:        code,
			Kind:        string(kind),
			Remediation: apierr.Remediation(kind),
			RequestID:   c.GetString(middleware.RequestIDKey),
		},
	})
}

// RespondAPIError derives status and code from the error kind. Internal errors never
// leak their message.
func RespondAPIError(c *gin.Context, err error) {
	status := apierr.StatusOf(err)
	code := apierr.CodeOf(err)
	if apierr.KindOf(err) == apierr.KindInternal {
		var e *apierr.Error
		if !errors.As(err, &e) {
			err = apierr.Internal("internal", errors.New("internal error"))
			code = "internal"
		}
	}
	RespondError(c, status, code, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
