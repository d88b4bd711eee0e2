package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QRPayloadPrefix prefixes the card id in the QR payload.
const QRPayloadPrefix = "giftcard:"

// GiftCard is a prepaid balance owned by one recipient.
// Balance and InitialBalance are in minor currency units.
type GiftCard struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	IssuerName     string    `gorm:"size:50;not null" json:"issuer_name"`
	RecipientName  string    `gorm:"size:50;not null" json:"recipient_name"`
	RecipientPhone string    `gorm:"size:16;not null;index:idx_gift_cards_recipient" json:"recipient_phone"`
	Balance        int64     `gorm:"not null;check:chk_gift_cards_balance,balance >= 0 AND balance <= initial_balance" json:"balance"`
	InitialBalance int64     `gorm:"not null" json:"initial_balance"`
	ExpirationDate time.Time `gorm:"not null" json:"expiration_date"`
	IsAccepted     bool      `gorm:"not null" json:"is_accepted"`
	IsActive       bool      `gorm:"not null" json:"is_active"`
	CreatedAt      time.Time `gorm:"index:idx_gift_cards_recipient" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Transactions []GiftCardTransaction `gorm:"foreignKey:GiftCardID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (GiftCard) TableName() string {
	return "gift_cards"
}

func (g *GiftCard) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// IsExpired reports whether the card's expiration date has passed at now.
func (g *GiftCard) IsExpired(now time.Time) bool {
	return !g.ExpirationDate.After(now)
}

// QRPayload is the string encoded into the card's QR code.
func (g *GiftCard) QRPayload() string {
	return QRPayloadPrefix + g.ID.String()
}

// GiftCardTransaction is one debit against a card. Rows are append-only.
type GiftCardTransaction struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GiftCardID      uuid.UUID `gorm:"type:uuid;not null;index:idx_gift_card_transactions_card" json:"gift_card_id"`
	Amount          int64     `gorm:"not null;check:chk_gift_card_transactions_amount,amount > 0" json:"amount"`
	Merchant        string    `gorm:"size:100;not null" json:"merchant"`
	TransactionDate time.Time `gorm:"not null;index:idx_gift_card_transactions_card" json:"transaction_date"`
}

func (GiftCardTransaction) TableName() string {
	return "gift_card_transactions"
}

func (t *GiftCardTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
