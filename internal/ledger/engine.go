package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	dbutil "github.com/meterwise/creditledger/internal/db"
	"github.com/meterwise/creditledger/internal/identity"
	"github.com/meterwise/creditledger/internal/metrics"
	"github.com/meterwise/creditledger/internal/models"
	"github.com/meterwise/creditledger/internal/plan"

	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Engine defaults applied when Config leaves fields zero.
const (
	defaultMaxAttempts  = 3
	defaultRetryBackoff = 50 * time.Millisecond
	defaultOpTimeout    = 5 * time.Second
)

// Bucket selects which granted pool an Add targets.
type Bucket string

// Bucket constants name the two credit pools.
const (
	// BucketRecurring is the periodically reset allotment.
	BucketRecurring Bucket = "recurring"
	// BucketExtra is the non-expiring bonus allotment.
	BucketExtra Bucket = "extra"
)

// Config tunes engine retry and timeout behavior.
type Config struct {
	MaxAttempts  int           // Transaction attempts before surfacing ErrLedgerUnavailable.
	RetryBackoff time.Duration // Base backoff between attempts, grows linearly.
	OpTimeout    time.Duration // Per-attempt transaction deadline.
}

// Engine orchestrates all balance mutations. It holds no durable state;
// every operation is a single store transaction serialized per balance row
// by an optimistic version check.
type Engine struct {
	db           *gorm.DB
	directory    identity.Directory
	entitlements plan.EntitlementSource
	maxAttempts  int
	retryBackoff time.Duration
	opTimeout    time.Duration
}

// NewEngine constructs an Engine. Zero Config fields fall back to defaults.
func NewEngine(db *gorm.DB, directory identity.Directory, entitlements plan.EntitlementSource, cfg Config) *Engine {
	if db == nil || directory == nil || entitlements == nil {
		return nil
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = defaultOpTimeout
	}
	return &Engine{
		db:           db,
		directory:    directory,
		entitlements: entitlements,
		maxAttempts:  cfg.MaxAttempts,
		retryBackoff: cfg.RetryBackoff,
		opTimeout:    cfg.OpTimeout,
	}
}

// ValidationResult is the advisory answer to "can the user afford this".
// It is race-prone by design; Consume re-checks inside its own transaction.
type ValidationResult struct {
	HasEnough          bool  `json:"has_enough"`
	Available          int64 `json:"available"`
	RemainingIfApplied int64 `json:"remaining_if_applied"`
}

// ConsumeParams holds inputs for Consume.
type ConsumeParams struct {
	UserID      uint64
	Amount      int64
	Description string
	Metadata    map[string]any
}

// AddParams holds inputs for Add.
type AddParams struct {
	UserID            uint64
	Amount            int64
	Bucket            Bucket
	Kind              models.EntryKind // GRANT or REFUND; empty defaults to GRANT.
	Description       string
	RelatedEntityType string
	RelatedEntityID   string
	ExpiresAt         *time.Time
	Metadata          map[string]any
}

// TransferParams holds inputs for Transfer.
type TransferParams struct {
	FromUserID  uint64
	ToUserID    uint64
	Amount      int64
	Description string
	Metadata    map[string]any
}

// TransferResult carries both sides of a completed transfer.
type TransferResult struct {
	Debit  *models.LedgerEntry `json:"debit"`
	Credit *models.LedgerEntry `json:"credit"`
}

// Validate reports whether the user can afford the amount. It lazily creates
// a zero balance on first access and applies a due reset, but never consumes.
func (e *Engine) Validate(ctx context.Context, userID uint64, amount int64) (*ValidationResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidOperation)
	}

	var result ValidationResult
	errRun := e.runInTx(ctx, "validate", func(tx *gorm.DB) error {
		now := nowUTC()
		b, errEnsure := e.ensureBalance(ctx, tx, userID, now)
		if errEnsure != nil {
			return errEnsure
		}
		resetApplied, errReset := e.applyResetLocked(ctx, tx, b, now)
		if errReset != nil {
			return errReset
		}
		if resetApplied {
			if errSave := e.saveBalance(tx, b, now); errSave != nil {
				return errSave
			}
		}

		avail := Available(b)
		result = ValidationResult{
			HasEnough:          avail >= amount,
			Available:          avail,
			RemainingIfApplied: avail,
		}
		if result.HasEnough {
			result.RemainingIfApplied = avail - amount
		}
		return nil
	})
	if errRun != nil {
		return nil, errRun
	}
	return &result, nil
}

// Consume drains credits, recurring bucket first, and writes one CONSUME entry.
func (e *Engine) Consume(ctx context.Context, params ConsumeParams) (*models.LedgerEntry, error) {
	if params.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidOperation)
	}
	if strings.TrimSpace(params.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidOperation)
	}

	meta, errMeta := metadataJSON(params.Metadata)
	if errMeta != nil {
		return nil, fmt.Errorf("%w: metadata: %v", ErrInvalidOperation, errMeta)
	}

	var entry *models.LedgerEntry
	errRun := e.runInTx(ctx, "consume", func(tx *gorm.DB) error {
		now := nowUTC()
		b, errEnsure := e.ensureBalance(ctx, tx, params.UserID, now)
		if errEnsure != nil {
			return errEnsure
		}
		if _, errReset := e.applyResetLocked(ctx, tx, b, now); errReset != nil {
			return errReset
		}

		avail := Available(b)
		if avail < params.Amount {
			return &InsufficientCreditsError{Available: avail, Requested: params.Amount}
		}

		takeRecurring := RecurringAvailable(b)
		if takeRecurring > params.Amount {
			takeRecurring = params.Amount
		}
		takeExtra := params.Amount - takeRecurring

		b.RecurringUsed += takeRecurring
		b.ExtraUsed += takeExtra
		b.TotalConsumedLifetime += params.Amount

		if errCheck := e.checkBalanceInvariants(b); errCheck != nil {
			return errCheck
		}
		if errSave := e.saveBalance(tx, b, now); errSave != nil {
			return errSave
		}

		row := &models.LedgerEntry{
			UserID:        params.UserID,
			Kind:          models.EntryKindConsume,
			Amount:        -params.Amount,
			BalanceBefore: avail,
			BalanceAfter:  avail - params.Amount,
			Description:   params.Description,
			Metadata:      meta,
			CreatedAt:     now,
		}
		if errWrite := e.writeEntry(tx, row); errWrite != nil {
			return errWrite
		}
		entry = row
		return nil
	})
	if errRun != nil {
		return nil, errRun
	}
	return entry, nil
}

// Add grants credits to the chosen bucket and writes one GRANT or REFUND entry.
func (e *Engine) Add(ctx context.Context, params AddParams) (*models.LedgerEntry, error) {
	if params.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidOperation)
	}
	if strings.TrimSpace(params.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidOperation)
	}
	if params.Bucket != BucketRecurring && params.Bucket != BucketExtra {
		return nil, fmt.Errorf("%w: unsupported bucket %q", ErrInvalidOperation, params.Bucket)
	}
	kind := params.Kind
	if kind == "" {
		kind = models.EntryKindGrant
	}
	if kind != models.EntryKindGrant && kind != models.EntryKindRefund {
		return nil, fmt.Errorf("%w: unsupported entry kind %q", ErrInvalidOperation, kind)
	}

	meta, errMeta := metadataJSON(params.Metadata)
	if errMeta != nil {
		return nil, fmt.Errorf("%w: metadata: %v", ErrInvalidOperation, errMeta)
	}

	var entry *models.LedgerEntry
	errRun := e.runInTx(ctx, "add", func(tx *gorm.DB) error {
		now := nowUTC()
		b, errEnsure := e.ensureBalance(ctx, tx, params.UserID, now)
		if errEnsure != nil {
			return errEnsure
		}
		if _, errReset := e.applyResetLocked(ctx, tx, b, now); errReset != nil {
			return errReset
		}

		avail := Available(b)
		if params.Bucket == BucketRecurring {
			b.RecurringGranted += params.Amount
		} else {
			b.ExtraGranted += params.Amount
		}
		b.TotalGrantedLifetime += params.Amount

		if errCheck := e.checkBalanceInvariants(b); errCheck != nil {
			return errCheck
		}
		if errSave := e.saveBalance(tx, b, now); errSave != nil {
			return errSave
		}

		row := &models.LedgerEntry{
			UserID:            params.UserID,
			Kind:              kind,
			Amount:            params.Amount,
			BalanceBefore:     avail,
			BalanceAfter:      avail + params.Amount,
			Description:       params.Description,
			RelatedEntityType: params.RelatedEntityType,
			RelatedEntityID:   params.RelatedEntityID,
			Metadata:          meta,
			ExpiresAt:         params.ExpiresAt,
			CreatedAt:         now,
		}
		if errWrite := e.writeEntry(tx, row); errWrite != nil {
			return errWrite
		}
		entry = row
		return nil
	})
	if errRun != nil {
		return nil, errRun
	}
	return entry, nil
}

// Transfer moves credits between two users in one atomic unit. The source is
// drained recurring-first; the destination always receives extra credits.
// Rows are locked in ascending user-id order regardless of direction.
func (e *Engine) Transfer(ctx context.Context, params TransferParams) (*TransferResult, error) {
	if params.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidOperation)
	}
	if params.FromUserID == params.ToUserID {
		return nil, fmt.Errorf("%w: cannot transfer to self", ErrInvalidOperation)
	}
	if strings.TrimSpace(params.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidOperation)
	}

	meta, errMeta := metadataJSON(params.Metadata)
	if errMeta != nil {
		return nil, fmt.Errorf("%w: metadata: %v", ErrInvalidOperation, errMeta)
	}

	var result *TransferResult
	errRun := e.runInTx(ctx, "transfer", func(tx *gorm.DB) error {
		now := nowUTC()

		// Deterministic lock order avoids deadlock between opposite-direction
		// transfers over the same pair of users.
		lockOrder := []uint64{params.FromUserID, params.ToUserID}
		if lockOrder[0] > lockOrder[1] {
			lockOrder[0], lockOrder[1] = lockOrder[1], lockOrder[0]
		}
		loaded := make(map[uint64]*models.Balance, 2)
		for _, id := range lockOrder {
			b, errEnsure := e.ensureBalance(ctx, tx, id, now)
			if errEnsure != nil {
				return errEnsure
			}
			if _, errReset := e.applyResetLocked(ctx, tx, b, now); errReset != nil {
				return errReset
			}
			loaded[id] = b
		}

		src := loaded[params.FromUserID]
		dst := loaded[params.ToUserID]

		availFrom := Available(src)
		if availFrom < params.Amount {
			return &InsufficientCreditsError{Available: availFrom, Requested: params.Amount}
		}
		availTo := Available(dst)

		takeRecurring := RecurringAvailable(src)
		if takeRecurring > params.Amount {
			takeRecurring = params.Amount
		}
		src.RecurringUsed += takeRecurring
		src.ExtraUsed += params.Amount - takeRecurring
		src.TotalConsumedLifetime += params.Amount

		dst.ExtraGranted += params.Amount
		dst.TotalGrantedLifetime += params.Amount

		for _, id := range lockOrder {
			if errCheck := e.checkBalanceInvariants(loaded[id]); errCheck != nil {
				return errCheck
			}
			if errSave := e.saveBalance(tx, loaded[id], now); errSave != nil {
				return errSave
			}
		}

		debit := &models.LedgerEntry{
			UserID:            params.FromUserID,
			Kind:              models.EntryKindTransferOut,
			Amount:            -params.Amount,
			BalanceBefore:     availFrom,
			BalanceAfter:      availFrom - params.Amount,
			Description:       params.Description,
			RelatedEntityType: "user",
			RelatedEntityID:   strconv.FormatUint(params.ToUserID, 10),
			Metadata:          meta,
			CreatedAt:         now,
		}
		credit := &models.LedgerEntry{
			UserID:            params.ToUserID,
			Kind:              models.EntryKindTransferIn,
			Amount:            params.Amount,
			BalanceBefore:     availTo,
			BalanceAfter:      availTo + params.Amount,
			Description:       params.Description,
			RelatedEntityType: "user",
			RelatedEntityID:   strconv.FormatUint(params.FromUserID, 10),
			Metadata:          meta,
			CreatedAt:         now,
		}
		if errWrite := e.writeEntry(tx, debit); errWrite != nil {
			return errWrite
		}
		if errWrite := e.writeEntry(tx, credit); errWrite != nil {
			return errWrite
		}
		result = &TransferResult{Debit: debit, Credit: credit}
		return nil
	})
	if errRun != nil {
		return nil, errRun
	}
	return result, nil
}

// Reset applies the monthly rollover when due. It reports whether anything
// changed; a balance whose reset already happened is a no-op.
func (e *Engine) Reset(ctx context.Context, userID uint64) (bool, error) {
	applied := false
	errRun := e.runInTx(ctx, "reset", func(tx *gorm.DB) error {
		now := nowUTC()
		var b models.Balance
		if errFind := dbutil.WithRowLock(tx).
			Where("user_id = ?", userID).
			First(&b).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return errFind
		}

		resetApplied, errReset := e.applyResetLocked(ctx, tx, &b, now)
		if errReset != nil {
			return errReset
		}
		if !resetApplied {
			return nil
		}
		if errCheck := e.checkBalanceInvariants(&b); errCheck != nil {
			return errCheck
		}
		if errSave := e.saveBalance(tx, &b, now); errSave != nil {
			return errSave
		}
		applied = true
		return nil
	})
	if errRun != nil {
		return false, errRun
	}
	return applied, nil
}

// Balance returns the enriched snapshot for a user, applying a due reset first.
func (e *Engine) Balance(ctx context.Context, userID uint64) (*Snapshot, error) {
	var snapshot Snapshot
	errRun := e.runInTx(ctx, "balance", func(tx *gorm.DB) error {
		now := nowUTC()
		b, errEnsure := e.ensureBalance(ctx, tx, userID, now)
		if errEnsure != nil {
			return errEnsure
		}
		resetApplied, errReset := e.applyResetLocked(ctx, tx, b, now)
		if errReset != nil {
			return errReset
		}
		if resetApplied {
			if errSave := e.saveBalance(tx, b, now); errSave != nil {
				return errSave
			}
		}
		snapshot = BuildSnapshot(b, now)
		return nil
	})
	if errRun != nil {
		return nil, errRun
	}
	return &snapshot, nil
}

// History page bounds.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// ClampHistoryPage normalizes pagination parameters to the bounds History
// enforces, so callers can report the page actually served.
func ClampHistoryPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// History returns a page of ledger entries ordered newest first, plus the total count.
func (e *Engine) History(ctx context.Context, userID uint64, limit, offset int) ([]models.LedgerEntry, int64, error) {
	limit, offset = ClampHistoryPage(limit, offset)

	var hasBalance int64
	if errCount := e.db.WithContext(ctx).Model(&models.Balance{}).
		Where("user_id = ?", userID).
		Count(&hasBalance).Error; errCount != nil {
		return nil, 0, errCount
	}
	if hasBalance == 0 {
		exists, errExists := e.directory.Exists(ctx, e.db, userID)
		if errExists != nil {
			return nil, 0, errExists
		}
		if !exists {
			return nil, 0, ErrUserNotFound
		}
	}

	var total int64
	if errCount := e.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("user_id = ?", userID).
		Count(&total).Error; errCount != nil {
		return nil, 0, errCount
	}

	var entries []models.LedgerEntry
	if errFind := e.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error; errFind != nil {
		return nil, 0, errFind
	}
	return entries, total, nil
}

// runInTx executes fn in a transaction, retrying version conflicts and
// transient store failures a bounded number of times with linear backoff.
func (e *Engine) runInTx(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	if e == nil || e.db == nil {
		return ErrLedgerUnavailable
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, e.opTimeout)
		errTx := e.db.WithContext(opCtx).Transaction(fn)
		cancel()
		if errTx == nil {
			return nil
		}
		if !isRetryable(errTx) {
			return errTx
		}
		lastErr = errTx
		if attempt == e.maxAttempts {
			break
		}
		metrics.RetriesTotal.WithLabelValues(op).Inc()
		log.WithError(errTx).Warnf("ledger: %s conflicted, retrying (attempt %d/%d)", op, attempt, e.maxAttempts)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrLedgerUnavailable, ctx.Err())
		case <-time.After(e.retryBackoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("%w: %v", ErrLedgerUnavailable, lastErr)
}

// isRetryable classifies store failures worth another attempt.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errVersionConflict) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "serialization failure") ||
		strings.Contains(msg, "could not serialize")
}

// ensureBalance loads the user's balance row with a write lock, creating a
// zero balance on first access. Creation goes through an insert that ignores
// unique-constraint conflicts and re-reads, so two concurrent first accesses
// settle on a single row.
func (e *Engine) ensureBalance(ctx context.Context, tx *gorm.DB, userID uint64, now time.Time) (*models.Balance, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidOperation)
	}

	var b models.Balance
	errFind := dbutil.WithRowLock(tx).Where("user_id = ?", userID).First(&b).Error
	if errFind == nil {
		return &b, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, errFind
	}

	exists, errExists := e.directory.Exists(ctx, tx, userID)
	if errExists != nil {
		return nil, errExists
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	fresh := models.Balance{
		UserID:      userID,
		NextResetAt: nextResetAfter(now),
	}
	if errCreate := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&fresh).Error; errCreate != nil {
		return nil, errCreate
	}

	if errReread := dbutil.WithRowLock(tx).Where("user_id = ?", userID).First(&b).Error; errReread != nil {
		return nil, errReread
	}
	return &b, nil
}

// applyResetLocked performs the monthly rollover on an already-locked balance:
// unused recurring credits are forfeited with an EXPIRE entry, the recurring
// grant is replaced by the plan entitlement with a GRANT entry, and the reset
// timestamp advances past now. The caller persists the mutated balance.
func (e *Engine) applyResetLocked(ctx context.Context, tx *gorm.DB, b *models.Balance, now time.Time) (bool, error) {
	if !NeedsReset(b, now) {
		return false, nil
	}

	grant, errGrant := e.entitlements.RecurringGrant(ctx, tx, b.UserID)
	if errGrant != nil {
		return false, errGrant
	}
	if grant < 0 {
		return false, fmt.Errorf("%w: negative entitlement %d", ErrInvariantViolation, grant)
	}

	running := Available(b)
	forfeit := RecurringAvailable(b)
	if forfeit > 0 {
		expire := &models.LedgerEntry{
			UserID:        b.UserID,
			Kind:          models.EntryKindExpire,
			Amount:        -forfeit,
			BalanceBefore: running,
			BalanceAfter:  running - forfeit,
			Description:   "recurring credits expired at reset",
			CreatedAt:     now,
		}
		if errWrite := e.writeEntry(tx, expire); errWrite != nil {
			return false, errWrite
		}
		running -= forfeit
	}

	b.RecurringUsed = 0
	b.RecurringGranted = grant
	b.NextResetAt = advanceResetTime(b.NextResetAt, now)

	if grant > 0 {
		b.TotalGrantedLifetime += grant
		renewal := &models.LedgerEntry{
			UserID:        b.UserID,
			Kind:          models.EntryKindGrant,
			Amount:        grant,
			BalanceBefore: running,
			BalanceAfter:  running + grant,
			Description:   "recurring allotment reset",
			CreatedAt:     now,
		}
		if errWrite := e.writeEntry(tx, renewal); errWrite != nil {
			return false, errWrite
		}
	}
	return true, nil
}

// saveBalance persists a mutated balance under its optimistic version guard.
// Zero rows affected means a concurrent writer won; the operation retries.
func (e *Engine) saveBalance(tx *gorm.DB, b *models.Balance, now time.Time) error {
	res := tx.Model(&models.Balance{}).
		Where("id = ? AND version = ?", b.ID, b.Version).
		Updates(map[string]any{
			"recurring_granted":       b.RecurringGranted,
			"recurring_used":          b.RecurringUsed,
			"extra_granted":           b.ExtraGranted,
			"extra_used":              b.ExtraUsed,
			"next_reset_at":           b.NextResetAt,
			"total_granted_lifetime":  b.TotalGrantedLifetime,
			"total_consumed_lifetime": b.TotalConsumedLifetime,
			"version":                 b.Version + 1,
			"updated_at":              now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errVersionConflict
	}
	b.Version++
	return nil
}

// writeEntry appends an audit row after asserting its arithmetic. A mismatch
// between the snapshots and the amount never reaches the store.
func (e *Engine) writeEntry(tx *gorm.DB, entry *models.LedgerEntry) error {
	if entry.BalanceAfter-entry.BalanceBefore != entry.Amount {
		log.WithFields(log.Fields{
			"user_id": entry.UserID,
			"kind":    entry.Kind,
			"amount":  entry.Amount,
			"before":  entry.BalanceBefore,
			"after":   entry.BalanceAfter,
		}).Error("ledger: entry arithmetic mismatch, aborting transaction")
		return fmt.Errorf("%w: entry amount %d does not match snapshots %d -> %d",
			ErrInvariantViolation, entry.Amount, entry.BalanceBefore, entry.BalanceAfter)
	}
	return tx.Create(entry).Error
}

// checkBalanceInvariants rejects any state where a bucket would go negative
// or consumption would exceed its grant.
func (e *Engine) checkBalanceInvariants(b *models.Balance) error {
	if b.RecurringGranted < 0 || b.RecurringUsed < 0 || b.ExtraGranted < 0 || b.ExtraUsed < 0 ||
		b.RecurringUsed > b.RecurringGranted || b.ExtraUsed > b.ExtraGranted {
		log.WithFields(log.Fields{
			"user_id":           b.UserID,
			"recurring_granted": b.RecurringGranted,
			"recurring_used":    b.RecurringUsed,
			"extra_granted":     b.ExtraGranted,
			"extra_used":        b.ExtraUsed,
		}).Error("ledger: balance invariant violated, aborting transaction")
		return fmt.Errorf("%w: bucket state out of range for user %d", ErrInvariantViolation, b.UserID)
	}
	return nil
}

// metadataJSON marshals the opaque caller context bag.
func metadataJSON(meta map[string]any) (datatypes.JSON, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	payload, errMarshal := json.Marshal(meta)
	if errMarshal != nil {
		return nil, errMarshal
	}
	return datatypes.JSON(payload), nil
}

// nowUTC returns the current UTC time.
func nowUTC() time.Time { return time.Now().UTC() }
