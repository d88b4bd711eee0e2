package giftcard

import (
	"context"
	"giftledger/internal/models"

	"github.com/google/uuid"
)

// Service is the gift card ledger engine.
type Service interface {
	// Lifecycle
	Issue(ctx context.Context, req IssueRequest) (*models.GiftCard, error)
	Accept(ctx context.Context, cardID uuid.UUID, recipientPhone string) (*models.GiftCard, error)
	Redeem(ctx context.Context, req RedeemRequest) (*models.GiftCard, error)

	// Reads
	Inspect(ctx context.Context, cardID uuid.UUID) (*models.GiftCard, error)
	Verify(ctx context.Context, cardID uuid.UUID) (*models.GiftCardVerification, error)
	ListByRecipient(ctx context.Context, phone string, page, perPage int) (*models.Page[models.GiftCard], error)
	ListTransactions(ctx context.Context, cardID uuid.UUID, page, perPage int) (*models.Page[models.GiftCardTransaction], error)
}
