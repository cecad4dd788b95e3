package handlers

import (
	"net/http"
	"time"

	"github.com/meterwise/creditledger/internal/ledger"
	"github.com/meterwise/creditledger/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// BalanceHandler serves balance snapshot and history endpoints.
type BalanceHandler struct {
	engine *ledger.Engine
}

// NewBalanceHandler constructs a BalanceHandler.
func NewBalanceHandler(engine *ledger.Engine) *BalanceHandler {
	return &BalanceHandler{engine: engine}
}

// entriesListQuery defines query parameters for listing ledger entries.
type entriesListQuery struct {
	Limit  int `form:"limit,default=50"`
	Offset int `form:"offset,default=0"`
}

// entryDTO defines the ledger entry response payload. Every stored field is
// exposed; entries are audit records and hide nothing.
type entryDTO struct {
	ID                uint64           `json:"id"`
	UserID            uint64           `json:"user_id"`
	Kind              models.EntryKind `json:"kind"`
	Amount            int64            `json:"amount"`
	BalanceBefore     int64            `json:"balance_before"`
	BalanceAfter      int64            `json:"balance_after"`
	Description       string           `json:"description"`
	RelatedEntityType string           `json:"related_entity_type,omitempty"`
	RelatedEntityID   string           `json:"related_entity_id,omitempty"`
	Metadata          datatypes.JSON   `json:"metadata,omitempty"`
	ExpiresAt         *time.Time       `json:"expires_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

// newEntryDTO converts a stored entry into its response payload.
func newEntryDTO(entry *models.LedgerEntry) entryDTO {
	return entryDTO{
		ID:                entry.ID,
		UserID:            entry.UserID,
		Kind:              entry.Kind,
		Amount:            entry.Amount,
		BalanceBefore:     entry.BalanceBefore,
		BalanceAfter:      entry.BalanceAfter,
		Description:       entry.Description,
		RelatedEntityType: entry.RelatedEntityType,
		RelatedEntityID:   entry.RelatedEntityID,
		Metadata:          entry.Metadata,
		ExpiresAt:         entry.ExpiresAt,
		CreatedAt:         entry.CreatedAt,
	}
}

// Get returns the current balance snapshot with derived fields.
func (h *BalanceHandler) Get(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	snapshot, errBalance := h.engine.Balance(c.Request.Context(), userID)
	if errBalance != nil {
		writeEngineError(c, "balance", errBalance)
		return
	}

	recordSuccess("balance")
	c.JSON(http.StatusOK, gin.H{"balance": snapshot})
}

// History returns a page of ledger entries, newest first.
func (h *BalanceHandler) History(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var q entriesListQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	q.Limit, q.Offset = ledger.ClampHistoryPage(q.Limit, q.Offset)

	entries, total, errHistory := h.engine.History(c.Request.Context(), userID, q.Limit, q.Offset)
	if errHistory != nil {
		writeEngineError(c, "history", errHistory)
		return
	}

	resp := make([]entryDTO, 0, len(entries))
	for i := range entries {
		resp = append(resp, newEntryDTO(&entries[i]))
	}

	recordSuccess("history")
	c.JSON(http.StatusOK, gin.H{
		"entries": resp,
		"total":   total,
		"limit":   q.Limit,
		"offset":  q.Offset,
	})
}
