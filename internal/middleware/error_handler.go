package middleware

import (
	"errors"
	"net/http"

	"github.com/Eursukkul/booking-settlement/internal/dto"
	"github.com/Eursukkul/booking-settlement/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

var statusCodes = map[int]string{
	http.StatusBadRequest:          "INVALID_INPUT",
	http.StatusUnauthorized:        "UNAUTHORIZED",
	http.StatusForbidden:           "FORBIDDEN",
	http.StatusNotFound:            "NOT_FOUND",
	http.StatusMethodNotAllowed:    "METHOD_NOT_ALLOWED",
	http.StatusConflict:            "CONFLICT",
	http.StatusUnprocessableEntity: "INVALID_INPUT",
	http.StatusTooManyRequests:     "RATE_LIMITED",
}

// ErrorHandler renders every error as {"code", "message"}. Handlers return
// *echo.HTTPError carrying a dto.ErrorResponse for classified failures;
// anything else becomes a 500 without internal detail.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := dto.ErrorResponse{Code: "INTERNAL", Message: "internal error"}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch m := he.Message.(type) {
		case dto.ErrorResponse:
			body = m
		case string:
			code, ok := statusCodes[status]
			if !ok {
				code = "INTERNAL"
				if status < http.StatusInternalServerError {
					code = "INVALID_INPUT"
				}
			}
			body = dto.ErrorResponse{Code: code, Message: m}
		}
		if he.Internal != nil {
			err = he.Internal
		}
	}

	if status >= http.StatusInternalServerError {
		logger.For("http").WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"uri":    c.Request().RequestURI,
			"status": status,
		}).Error("request failed")
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}
