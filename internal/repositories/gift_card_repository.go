package repositories

import (
	"context"
	"errors"
	"giftledger/internal/models"
	"time"

	"github.com/google/uuid"
)

var (
	ErrGiftCardNotFound  = errors.New("gift card not found")
	ErrDuplicateGiftCard = errors.New("gift card already exists")
)

// GiftCardRepository is the card store consumed by the ledger engine.
type GiftCardRepository interface {
	// Card reads
	GetByID(ctx context.Context, id uuid.UUID) (*models.GiftCard, error)
	// GetByIDForUpdate takes an exclusive row lock held until the enclosing
	// transaction ends. It only serializes callers when the repository is
	// bound to a transaction via ExecuteInTransaction.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.GiftCard, error)

	// Card writes
	Create(ctx context.Context, card *models.GiftCard) error
	MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdateBalance(ctx context.Context, id uuid.UUID, balance int64, isActive bool, at time.Time) error

	// Ledger
	CreateTransaction(ctx context.Context, txn *models.GiftCardTransaction) error

	// Listings, newest first
	ListByRecipient(ctx context.Context, phone string, offset, limit int) ([]models.GiftCard, int64, error)
	ListTransactions(ctx context.Context, cardID uuid.UUID, offset, limit int) ([]models.GiftCardTransaction, int64, error)

	ExecuteInTransaction(ctx context.Context, fn func(GiftCardRepository) error) error
}
