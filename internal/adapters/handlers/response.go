package handlers

import (
	"net/http"

	"github.com/twmiller/dl-44/internal/grbl"

	"github.com/gin-gonic/gin"
)

// statusForCode maps the controller error taxonomy to HTTP statuses.
func statusForCode(code grbl.ErrorCode) int {
	switch code {
	case grbl.CodeNotConnected, grbl.CodeInvalidState, grbl.CodeAlarm:
		return http.StatusConflict
	case grbl.CodeTimeout:
		return http.StatusGatewayTimeout
	case grbl.CodeGrblError:
		return http.StatusUnprocessableEntity
	case grbl.CodeSerialError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// CommandError renders a controller failure as structured JSON carrying
// the taxonomy code.
func (h *Handler) CommandError(c *gin.Context, err error) {
	ce := grbl.AsCommandError(err)
	statusCode := statusForCode(ce.Code)

	h.logger.Error("Command failed", "code", ce.Code, "error", ce.Error(), "statusCode", statusCode)
	c.AbortWithStatusJSON(statusCode, gin.H{
		"status": "error",
		"error": gin.H{
			"code":    ce.Code,
			"message": ce.Error(),
		},
	})
}

// BadRequest renders a 400.
func (h *Handler) BadRequest(c *gin.Context, err error, message string) {
	errorMessage := message
	if err != nil {
		errorMessage = message + ": " + err.Error()
	}

	h.logger.Error(message, "error", err, "statusCode", http.StatusBadRequest)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"status": "error",
		"error": gin.H{
			"code":    "BAD_REQUEST",
			"message": errorMessage,
		},
	})
}

// InternalError renders a 500.
func (h *Handler) InternalError(c *gin.Context, err error) {
	h.logger.Error("Internal server error", "error", err, "statusCode", http.StatusInternalServerError)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"status": "error",
		"error": gin.H{
			"code":    "INTERNAL",
			"message": "internal server error",
		},
	})
}
