package models

import (
	"time"

	"gorm.io/datatypes"
)

// EntryKind classifies a ledger entry.
type EntryKind string

// EntryKind constants define the audit record taxonomy.
const (
	// EntryKindGrant records credits added to a bucket.
	EntryKindGrant EntryKind = "GRANT"
	// EntryKindConsume records credits spent on a metered service.
	EntryKindConsume EntryKind = "CONSUME"
	// EntryKindRefund records credits returned to the extra bucket.
	EntryKindRefund EntryKind = "REFUND"
	// EntryKindExpire records recurring credits forfeited at reset.
	EntryKindExpire EntryKind = "EXPIRE"
	// EntryKindTransferOut records the debit side of a transfer.
	EntryKindTransferOut EntryKind = "TRANSFER_OUT"
	// EntryKindTransferIn records the credit side of a transfer.
	EntryKindTransferIn EntryKind = "TRANSFER_IN"
)

// LedgerEntry is an immutable audit record of one balance mutation.
// Rows are append-only: nothing in the codebase updates or deletes them.
type LedgerEntry struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64    `gorm:"not null;index"`           // Owning user ID.
	Kind   EntryKind `gorm:"type:text;not null;index"` // Mutation kind.

	Amount        int64 `gorm:"not null"` // Signed amount, positive inbound, negative outbound.
	BalanceBefore int64 `gorm:"not null"` // Total available credits before this entry.
	BalanceAfter  int64 `gorm:"not null"` // Total available credits after this entry.

	Description string `gorm:"type:text;not null"` // Human-readable cause, required.

	RelatedEntityType string `gorm:"type:text"` // Optional originating entity type.
	RelatedEntityID   string `gorm:"type:text"` // Optional originating entity ID.

	Metadata datatypes.JSON `gorm:"type:jsonb"` // Opaque caller context, never interpreted.

	ExpiresAt *time.Time // Expiration of the granted credits, if any.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
}

// TableName overrides the default table name.
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
