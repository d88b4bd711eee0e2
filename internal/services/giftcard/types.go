package giftcard

import (
	"context"
	"time"

	"giftledger/internal/models"

	"github.com/google/uuid"
)

// IssueRequest describes a new card. Balance is in minor currency units.
type IssueRequest struct {
	IssuerName     string
	RecipientName  string
	RecipientPhone string
	Balance        int64
	ExpirationDays int
}

// RedeemRequest debits Amount minor units from a card on behalf of Merchant.
type RedeemRequest struct {
	CardID   uuid.UUID
	Amount   int64
	Merchant string
}

// Config holds configuration for the ledger engine
type Config struct {
	MaxBalance        int64
	MaxExpirationDays int
	// Now is the engine clock. Defaults to time.Now.
	Now func() time.Time
	// Notifier is told about committed issues and redemptions. Optional.
	Notifier Notifier
}

// Notifier reaches the recipient of a card. A failed notification never
// undoes the ledger change that triggered it.
type Notifier interface {
	GiftCardIssued(ctx context.Context, card *models.GiftCard) error
	GiftCardRedeemed(ctx context.Context, card *models.GiftCard, amount int64, merchant string) error
}

// MetricsCollector defines the interface for collecting ledger metrics
type MetricsCollector interface {
	// Operation metrics
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)

	// Balance metrics
	RecordIssued(amount int64)
	RecordRedemption(amount, remaining int64)

	// Error metrics
	RecordError(operation, code string)
}
