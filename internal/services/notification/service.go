package notification

import (
	"context"

	"giftledger/internal/models"
	"giftledger/internal/utils"

	"go.uber.org/zap"
)

// Service tells recipients about their cards. It only logs for now.
// TODO: deliver over SMS once a provider is chosen.
type Service struct {
	logger *zap.Logger
}

// NewService creates a new notification service.
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger.Named("notification")}
}

// GiftCardIssued asks the recipient to accept a new card.
func (s *Service) GiftCardIssued(ctx context.Context, card *models.GiftCard) error {
	s.logger.Info("notify recipient of issued gift card",
		zap.Stringer("card_id", card.ID),
		zap.String("phone", MaskPhone(card.RecipientPhone)),
		zap.String("issuer", card.IssuerName),
		zap.String("amount", utils.FormatMoney(card.InitialBalance)),
	)
	return nil
}

// GiftCardRedeemed reports a debit and the remaining balance.
func (s *Service) GiftCardRedeemed(ctx context.Context, card *models.GiftCard, amount int64, merchant string) error {
	s.logger.Info("notify recipient of redemption",
		zap.Stringer("card_id", card.ID),
		zap.String("phone", MaskPhone(card.RecipientPhone)),
		zap.String("amount", utils.FormatMoney(amount)),
		zap.String("merchant", merchant),
		zap.String("balance", utils.FormatMoney(card.Balance)),
	)
	return nil
}

// MaskPhone keeps the last four digits of a phone number.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	masked := make([]byte, len(phone))
	for i := range phone {
		if i < len(phone)-4 && phone[i] != '+' {
			masked[i] = '*'
		} else {
			masked[i] = phone[i]
		}
	}
	return string(masked)
}
