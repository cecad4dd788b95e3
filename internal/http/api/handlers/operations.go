package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/meterwise/creditledger/internal/ledger"
	"github.com/meterwise/creditledger/internal/models"

	"github.com/gin-gonic/gin"
)

// OperationsHandler serves the mutating ledger endpoints.
type OperationsHandler struct {
	engine *ledger.Engine
}

// NewOperationsHandler constructs an OperationsHandler.
func NewOperationsHandler(engine *ledger.Engine) *OperationsHandler {
	return &OperationsHandler{engine: engine}
}

// validateRequest defines the request body for balance validation.
type validateRequest struct {
	Amount int64 `json:"amount"`
}

// consumeRequest defines the request body for credit consumption.
type consumeRequest struct {
	Amount      int64          `json:"amount"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
}

// addCreditsRequest defines the request body for credit grants and refunds.
type addCreditsRequest struct {
	Amount            int64          `json:"amount"`
	Bucket            string         `json:"bucket"`
	Kind              string         `json:"kind"`
	Description       string         `json:"description"`
	RelatedEntityType string         `json:"related_entity_type"`
	RelatedEntityID   string         `json:"related_entity_id"`
	ExpiresAt         *time.Time     `json:"expires_at"`
	Metadata          map[string]any `json:"metadata"`
}

// transferRequest defines the request body for transfers between users.
type transferRequest struct {
	FromUserID  uint64         `json:"from_user_id"`
	ToUserID    uint64         `json:"to_user_id"`
	Amount      int64          `json:"amount"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
}

// Validate answers whether the user can likely afford the amount. The answer
// is advisory; Consume re-checks atomically.
func (h *OperationsHandler) Validate(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var body validateRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	result, errValidate := h.engine.Validate(c.Request.Context(), userID, body.Amount)
	if errValidate != nil {
		writeEngineError(c, "validate", errValidate)
		return
	}

	recordSuccess("validate")
	c.JSON(http.StatusOK, result)
}

// Consume deducts credits for a metered service call.
func (h *OperationsHandler) Consume(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var body consumeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	entry, errConsume := h.engine.Consume(c.Request.Context(), ledger.ConsumeParams{
		UserID:      userID,
		Amount:      body.Amount,
		Description: body.Description,
		Metadata:    callerMetadata(c, body.Metadata),
	})
	if errConsume != nil {
		writeEngineError(c, "consume", errConsume)
		return
	}

	recordSuccess("consume")
	c.JSON(http.StatusOK, gin.H{"entry": newEntryDTO(entry)})
}

// AddCredits grants or refunds credits into a bucket.
func (h *OperationsHandler) AddCredits(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var body addCreditsRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	bucket := ledger.Bucket(strings.ToLower(strings.TrimSpace(body.Bucket)))
	if bucket == "" {
		bucket = ledger.BucketExtra
	}

	entry, errAdd := h.engine.Add(c.Request.Context(), ledger.AddParams{
		UserID:            userID,
		Amount:            body.Amount,
		Bucket:            bucket,
		Kind:              models.EntryKind(strings.ToUpper(strings.TrimSpace(body.Kind))),
		Description:       body.Description,
		RelatedEntityType: body.RelatedEntityType,
		RelatedEntityID:   body.RelatedEntityID,
		ExpiresAt:         body.ExpiresAt,
		Metadata:          callerMetadata(c, body.Metadata),
	})
	if errAdd != nil {
		writeEngineError(c, "add", errAdd)
		return
	}

	recordSuccess("add")
	c.JSON(http.StatusOK, gin.H{"entry": newEntryDTO(entry)})
}

// Transfer moves credits between two users atomically.
func (h *OperationsHandler) Transfer(c *gin.Context) {
	var body transferRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.FromUserID == 0 || body.ToUserID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from_user_id and to_user_id are required"})
		return
	}

	result, errTransfer := h.engine.Transfer(c.Request.Context(), ledger.TransferParams{
		FromUserID:  body.FromUserID,
		ToUserID:    body.ToUserID,
		Amount:      body.Amount,
		Description: body.Description,
		Metadata:    callerMetadata(c, body.Metadata),
	})
	if errTransfer != nil {
		writeEngineError(c, "transfer", errTransfer)
		return
	}

	recordSuccess("transfer")
	c.JSON(http.StatusOK, gin.H{
		"debit":  newEntryDTO(result.Debit),
		"credit": newEntryDTO(result.Credit),
	})
}
