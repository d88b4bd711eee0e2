package repositories

import (
	"context"
	"errors"
	"fmt"
	"giftledger/internal/models"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type giftCardRepository struct {
	db *gorm.DB
}

func NewGiftCardRepository(db *gorm.DB) GiftCardRepository {
	return &giftCardRepository{
		db: db,
	}
}

func (r *giftCardRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GiftCard, error) {
	var card models.GiftCard
	if err := r.db.WithContext(ctx).First(&card, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGiftCardNotFound
		}
		return nil, fmt.Errorf("failed to get gift card: %w", err)
	}
	return &card, nil
}

func (r *giftCardRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.GiftCard, error) {
	var card models.GiftCard
	err := lockedCardQuery(r.db.WithContext(ctx), id).First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGiftCardNotFound
		}
		return nil, fmt.Errorf("failed to lock gift card: %w", err)
	}
	return &card, nil
}

// lockedCardQuery selects one card row with an exclusive row lock. Dialects
// without row locks, such as SQLite, drop the clause.
func lockedCardQuery(db *gorm.DB, id uuid.UUID) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id)
}

func (r *giftCardRepository) Create(ctx context.Context, card *models.GiftCard) error {
	if err := r.db.WithContext(ctx).Create(card).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateGiftCard
		}
		return fmt.Errorf("failed to create gift card: %w", err)
	}
	return nil
}

func (r *giftCardRepository) MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.GiftCard{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_accepted": true,
			"updated_at":  at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to accept gift card: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrGiftCardNotFound
	}
	return nil
}

func (r *giftCardRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance int64, isActive bool, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.GiftCard{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"balance":    balance,
			"is_active":  isActive,
			"updated_at": at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update gift card balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrGiftCardNotFound
	}
	return nil
}

func (r *giftCardRepository) CreateTransaction(ctx context.Context, txn *models.GiftCardTransaction) error {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return fmt.Errorf("failed to create gift card transaction: %w", err)
	}
	return nil
}

func (r *giftCardRepository) ListByRecipient(ctx context.Context, phone string, offset, limit int) ([]models.GiftCard, int64, error) {
	var total int64
	query := r.db.WithContext(ctx).Model(&models.GiftCard{}).Where("recipient_phone = ?", phone)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count gift cards: %w", err)
	}

	cards := make([]models.GiftCard, 0)
	err := r.db.WithContext(ctx).
		Where("recipient_phone = ?", phone).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&cards).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list gift cards: %w", err)
	}
	return cards, total, nil
}

func (r *giftCardRepository) ListTransactions(ctx context.Context, cardID uuid.UUID, offset, limit int) ([]models.GiftCardTransaction, int64, error) {
	var total int64
	query := r.db.WithContext(ctx).Model(&models.GiftCardTransaction{}).Where("gift_card_id = ?", cardID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count gift card transactions: %w", err)
	}

	txns := make([]models.GiftCardTransaction, 0)
	err := r.db.WithContext(ctx).
		Where("gift_card_id = ?", cardID).
		Order("transaction_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&txns).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list gift card transactions: %w", err)
	}
	return txns, total, nil
}

// ExecuteInTransaction runs fn against a repository bound to a single store
// transaction. The transaction commits when fn returns nil and rolls back on
// error, panic or context cancellation.
func (r *giftCardRepository) ExecuteInTransaction(ctx context.Context, fn func(GiftCardRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &giftCardRepository{db: tx}
		return fn(txRepo)
	})
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
