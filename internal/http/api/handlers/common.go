package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	relayhttp "github.com/meterwise/creditledger/internal/http"
	"github.com/meterwise/creditledger/internal/ledger"
	"github.com/meterwise/creditledger/internal/metrics"

	"github.com/gin-gonic/gin"
)

// parseUserID extracts the user_id path parameter.
func parseUserID(c *gin.Context) (uint64, bool) {
	raw := strings.TrimSpace(c.Param("user_id"))
	if raw == "" {
		return 0, false
	}
	parsed, errParse := strconv.ParseUint(raw, 10, 64)
	if errParse != nil || parsed == 0 {
		return 0, false
	}
	return parsed, true
}

// callerMetadata merges body-supplied metadata with request correlation
// context. Values pass through to the ledger untouched.
func callerMetadata(c *gin.Context, body map[string]any) map[string]any {
	meta := make(map[string]any, len(body)+3)
	for k, v := range body {
		meta[k] = v
	}
	if requestID := relayhttp.RequestIDFromContext(c); requestID != "" {
		meta["request_id"] = requestID
	}
	if ip := c.ClientIP(); ip != "" {
		meta["client_ip"] = ip
	}
	if ua := strings.TrimSpace(c.Request.UserAgent()); ua != "" {
		meta["user_agent"] = ua
	}
	return meta
}

// writeEngineError maps typed engine failures onto HTTP responses and
// records the outcome counter for the operation.
func writeEngineError(c *gin.Context, operation string, err error) {
	switch {
	case errors.Is(err, ledger.ErrUserNotFound):
		metrics.OperationsTotal.WithLabelValues(operation, "user_not_found").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, ledger.ErrInsufficientCredits):
		metrics.OperationsTotal.WithLabelValues(operation, "insufficient_credits").Inc()
		metrics.InsufficientTotal.Inc()
		payload := gin.H{"error": "insufficient credits"}
		var insufficient *ledger.InsufficientCreditsError
		if errors.As(err, &insufficient) {
			payload["available"] = insufficient.Available
			payload["requested"] = insufficient.Requested
		}
		c.JSON(http.StatusPaymentRequired, payload)
	case errors.Is(err, ledger.ErrInvalidOperation):
		metrics.OperationsTotal.WithLabelValues(operation, "invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrLedgerUnavailable):
		metrics.OperationsTotal.WithLabelValues(operation, "unavailable").Inc()
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ledger unavailable, retry later"})
	default:
		metrics.OperationsTotal.WithLabelValues(operation, "error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// recordSuccess bumps the success counter for an operation.
func recordSuccess(operation string) {
	metrics.OperationsTotal.WithLabelValues(operation, "ok").Inc()
}
