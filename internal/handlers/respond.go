package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/middleware"
)

func init() {
	// keep raw voucher amounts as json.Number so no precision is lost to float64
	binding.EnableDecoderUseNumber = true
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code   string              `json:"code"`
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// respondError classifies err and writes the matching status and body.
// Server-side failures are logged at error level and hide their cause.
func respondError(c *gin.Context, err error, msg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	appErr := apperrors.Classify(err)

	body := ErrorResponse{Code: appErr.Code, Error: appErr.Message, Fields: appErr.Fields}
	switch {
	case appErr.Status >= http.StatusInternalServerError:
		logger.Error(msg, slog.String("error", err.Error()), slog.String("code", appErr.Code))
		if appErr.Retryable {
			c.Header("Retry-After", "1")
		} else {
			body.Error = msg
		}
	default:
		logger.Warn(msg, slog.String("error", err.Error()), slog.String("code", appErr.Code))
	}
	c.JSON(appErr.Status, body)
}

// respondBindError reports a malformed request body or query.
func respondBindError(c *gin.Context, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	logger.Warn("Failed to bind request", slog.String("error", err.Error()))

	fields := apperrors.FieldErrors{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields.Add(fe.Field(), "Failed on the '"+fe.Tag()+"' rule.")
		}
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:   apperrors.CodeValidation,
		Error:  "Invalid request format: " + err.Error(),
		Fields: fields,
	})
}

// requireUserID returns the authenticated user or writes 401.
func requireUserID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "AUTH-401", Error: "Unauthorized"})
		return "", false
	}
	return userID, true
}

// bindOptionalJSON binds the body when one was sent.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
