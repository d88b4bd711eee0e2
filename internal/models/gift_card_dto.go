package models

import (
	"time"

	"github.com/google/uuid"
)

// IssueGiftCardRequest is the body of POST /gift-cards.
type IssueGiftCardRequest struct {
	IssuerName     string `json:"issuer_name" validate:"required,personname"`
	RecipientName  string `json:"recipient_name" validate:"required,personname"`
	RecipientPhone string `json:"recipient_phone" validate:"required,phone"`
	Balance        int64  `json:"balance" validate:"gt=0"`
	ExpirationDays int    `json:"expiration_days" validate:"gt=0"`
}

// AcceptGiftCardRequest is the body of POST /gift-cards/:id/accept.
type AcceptGiftCardRequest struct {
	RecipientPhone string `json:"recipient_phone" validate:"required"`
}

// UseGiftCardRequest is the body of POST /gift-cards/:id/use.
type UseGiftCardRequest struct {
	Amount   int64  `json:"amount" validate:"gt=0"`
	Merchant string `json:"merchant" validate:"required,max=100"`
}

// GiftCardResponse is a card as returned over HTTP.
type GiftCardResponse struct {
	ID                      uuid.UUID `json:"id"`
	IssuerName              string    `json:"issuer_name"`
	RecipientName           string    `json:"recipient_name"`
	RecipientPhone          string    `json:"recipient_phone"`
	DisplayPhone            string    `json:"display_phone"`
	Balance                 int64     `json:"balance"`
	InitialBalance          int64     `json:"initial_balance"`
	FormattedBalance        string    `json:"formatted_balance"`
	FormattedInitialBalance string    `json:"formatted_initial_balance"`
	ExpirationDate          time.Time `json:"expiration_date"`
	IsAccepted              bool      `json:"is_accepted"`
	IsActive                bool      `json:"is_active"`
	QRCode                  *string   `json:"qr_code"`
	CreatedAt               time.Time `json:"created_at"`
}

// GiftCardVerification is the view returned when a QR code is scanned.
type GiftCardVerification struct {
	ID             uuid.UUID `json:"id"`
	Balance        int64     `json:"balance"`
	IsActive       bool      `json:"is_active"`
	IsAccepted     bool      `json:"is_accepted"`
	IsExpired      bool      `json:"is_expired"`
	IsRedeemable   bool      `json:"is_redeemable"`
	ExpirationDate time.Time `json:"expiration_date"`
}

// Page is one page of a newest-first listing.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}
