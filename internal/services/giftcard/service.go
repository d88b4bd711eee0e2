package giftcard

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "giftledger/internal/errors"
	"giftledger/internal/models"
	"giftledger/internal/repositories"
	"giftledger/internal/utils"
	"giftledger/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type service struct {
	repo    repositories.GiftCardRepository
	config  Config
	logger  *zap.Logger
	metrics MetricsCollector
}

// NewService creates a new ledger engine
func NewService(
	repo repositories.GiftCardRepository,
	config Config,
	logger *zap.Logger,
	metrics MetricsCollector,
) Service {
	if repo == nil {
		panic("repo is required")
	}

	// Set default configuration values if not provided
	if config.MaxBalance <= 0 {
		config.MaxBalance = validation.MaxBalance
	}
	if config.MaxExpirationDays <= 0 {
		config.MaxExpirationDays = validation.MaxExpirationDays
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Metrics is optional, create no-op collector if nil
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:    repo,
		config:  config,
		logger:  logger.Named("giftcard"),
		metrics: metrics,
	}
}

// now returns the engine clock in UTC at the precision the store keeps.
func (s *service) now() time.Time {
	return s.config.Now().UTC().Truncate(time.Microsecond)
}

func (s *service) Issue(ctx context.Context, req IssueRequest) (card *models.GiftCard, err error) {
	defer s.observe(OpIssue, time.Now(), uuid.Nil, &err)

	req.IssuerName = strings.TrimSpace(req.IssuerName)
	req.RecipientName = strings.TrimSpace(req.RecipientName)
	req.RecipientPhone = strings.TrimSpace(req.RecipientPhone)

	switch {
	case !validation.IsValidPersonName(req.IssuerName):
		return nil, apperrors.ErrInvalidIssuerName
	case !validation.IsValidPersonName(req.RecipientName):
		return nil, apperrors.ErrInvalidRecipientName
	case !validation.IsValidPhone(req.RecipientPhone):
		return nil, apperrors.ErrInvalidPhone
	case req.Balance < validation.MinBalance:
		return nil, apperrors.ErrInvalidBalance
	case req.Balance > s.config.MaxBalance:
		return nil, apperrors.ErrBalanceTooLarge
	case req.ExpirationDays < validation.MinExpirationDays:
		return nil, apperrors.ErrInvalidExpirationDays
	case req.ExpirationDays > s.config.MaxExpirationDays:
		return nil, apperrors.ErrExpirationTooLong
	}

	now := s.now()
	card = &models.GiftCard{
		ID:             uuid.New(),
		IssuerName:     req.IssuerName,
		RecipientName:  req.RecipientName,
		RecipientPhone: req.RecipientPhone,
		Balance:        req.Balance,
		InitialBalance: req.Balance,
		ExpirationDate: now.Add(time.Duration(req.ExpirationDays) * 24 * time.Hour),
		IsAccepted:     false,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, card); err != nil {
		if errors.Is(err, repositories.ErrDuplicateGiftCard) {
			return nil, apperrors.ErrDuplicateCard
		}
		return nil, apperrors.Store("Failed to create gift card", err)
	}

	s.metrics.RecordIssued(card.InitialBalance)
	s.logger.Info("gift card issued",
		zap.String("operation", OpIssue),
		zap.Stringer("card_id", card.ID),
		zap.Int64("balance", card.Balance),
		zap.Time("expiration_date", card.ExpirationDate),
	)
	if s.config.Notifier != nil {
		if err := s.config.Notifier.GiftCardIssued(ctx, card); err != nil {
			s.logger.Warn("failed to notify recipient", zap.Stringer("card_id", card.ID), zap.Error(err))
		}
	}
	return card, nil
}

func (s *service) Accept(ctx context.Context, cardID uuid.UUID, recipientPhone string) (card *models.GiftCard, err error) {
	defer s.observe(OpAccept, time.Now(), cardID, &err)

	card, err = s.get(ctx, cardID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	switch {
	case card.RecipientPhone != strings.TrimSpace(recipientPhone):
		return nil, apperrors.ErrPhoneMismatch
	case card.IsAccepted:
		return nil, apperrors.ErrAlreadyAccepted
	case card.IsExpired(now):
		return nil, apperrors.ErrCardExpired
	}

	if err := s.repo.MarkAccepted(ctx, cardID, now); err != nil {
		if errors.Is(err, repositories.ErrGiftCardNotFound) {
			return nil, apperrors.ErrCardNotFound
		}
		return nil, apperrors.Store("Failed to accept gift card", err)
	}

	return s.get(ctx, cardID)
}

// Redeem debits a card under an exclusive row lock. The balance update and
// the ledger row commit together or not at all.
func (s *service) Redeem(ctx context.Context, req RedeemRequest) (card *models.GiftCard, err error) {
	defer s.observe(OpRedeem, time.Now(), req.CardID, &err)

	merchant := strings.TrimSpace(req.Merchant)
	var remaining int64

	err = s.repo.ExecuteInTransaction(ctx, func(tx repositories.GiftCardRepository) error {
		locked, err := tx.GetByIDForUpdate(ctx, req.CardID)
		if err != nil {
			if errors.Is(err, repositories.ErrGiftCardNotFound) {
				return apperrors.ErrCardNotFound
			}
			return err
		}

		now := s.now()
		if err := checkRedeemable(locked, req.Amount, merchant, now); err != nil {
			return err
		}

		remaining = locked.Balance - req.Amount
		if err := tx.UpdateBalance(ctx, locked.ID, remaining, remaining > 0, now); err != nil {
			return err
		}

		return tx.CreateTransaction(ctx, &models.GiftCardTransaction{
			ID:              uuid.New(),
			GiftCardID:      locked.ID,
			Amount:          req.Amount,
			Merchant:        merchant,
			TransactionDate: now,
		})
	})
	if err != nil {
		var de *apperrors.DomainError
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, apperrors.Store("Failed to redeem gift card", err)
	}

	s.metrics.RecordRedemption(req.Amount, remaining)
	s.logger.Info("gift card redeemed",
		zap.String("operation", OpRedeem),
		zap.Stringer("card_id", req.CardID),
		zap.Int64("amount", req.Amount),
		zap.Int64("balance", remaining),
		zap.String("merchant", merchant),
	)

	card, err = s.get(ctx, req.CardID)
	if err != nil {
		return nil, err
	}
	if s.config.Notifier != nil {
		if err := s.config.Notifier.GiftCardRedeemed(ctx, card, req.Amount, merchant); err != nil {
			s.logger.Warn("failed to notify recipient", zap.Stringer("card_id", card.ID), zap.Error(err))
		}
	}
	return card, nil
}

// checkRedeemable applies the redemption rules in order and returns the first
// violation.
func checkRedeemable(card *models.GiftCard, amount int64, merchant string, now time.Time) error {
	switch {
	case !card.IsActive && card.Balance == 0:
		return apperrors.ErrInsufficientBalance
	case !card.IsActive:
		return apperrors.ErrCardInactive
	case !card.IsAccepted:
		return apperrors.ErrCardNotAccepted
	case card.IsExpired(now):
		return apperrors.ErrCardExpired
	case amount <= 0:
		return apperrors.ErrInvalidAmount
	case merchant == "":
		return apperrors.ErrMerchantRequired
	case utf8.RuneCountInString(merchant) > validation.MaxMerchantLength:
		return apperrors.ErrMerchantTooLong
	case card.Balance < amount:
		return apperrors.ErrInsufficientBalance
	}
	return nil
}

func (s *service) Inspect(ctx context.Context, cardID uuid.UUID) (card *models.GiftCard, err error) {
	defer s.observe(OpInspect, time.Now(), cardID, &err)
	return s.get(ctx, cardID)
}

func (s *service) Verify(ctx context.Context, cardID uuid.UUID) (v *models.GiftCardVerification, err error) {
	defer s.observe(OpVerify, time.Now(), cardID, &err)

	card, err := s.get(ctx, cardID)
	if err != nil {
		return nil, err
	}

	expired := card.IsExpired(s.now())
	return &models.GiftCardVerification{
		ID:             card.ID,
		Balance:        card.Balance,
		IsActive:       card.IsActive,
		IsAccepted:     card.IsAccepted,
		IsExpired:      expired,
		IsRedeemable:   card.IsActive && card.IsAccepted && !expired,
		ExpirationDate: card.ExpirationDate,
	}, nil
}

func (s *service) ListByRecipient(ctx context.Context, phone string, page, perPage int) (p *models.Page[models.GiftCard], err error) {
	defer s.observe(OpListByRecipient, time.Now(), uuid.Nil, &err)

	phone = strings.TrimSpace(phone)
	if !validation.IsValidPhone(phone) {
		return nil, apperrors.ErrInvalidPhone
	}

	pg := utils.NewPagination(page, perPage)
	cards, total, err := s.repo.ListByRecipient(ctx, phone, pg.Offset, pg.PerPage)
	if err != nil {
		return nil, apperrors.Store("Failed to list gift cards", err)
	}

	return &models.Page[models.GiftCard]{
		Items:      cards,
		Page:       pg.Page,
		PerPage:    pg.PerPage,
		Total:      total,
		TotalPages: utils.TotalPages(total, pg.PerPage),
	}, nil
}

func (s *service) ListTransactions(ctx context.Context, cardID uuid.UUID, page, perPage int) (p *models.Page[models.GiftCardTransaction], err error) {
	defer s.observe(OpListTransactions, time.Now(), cardID, &err)

	if _, err := s.get(ctx, cardID); err != nil {
		return nil, err
	}

	pg := utils.NewPagination(page, perPage)
	txns, total, err := s.repo.ListTransactions(ctx, cardID, pg.Offset, pg.PerPage)
	if err != nil {
		return nil, apperrors.Store("Failed to list gift card transactions", err)
	}

	return &models.Page[models.GiftCardTransaction]{
		Items:      txns,
		Page:       pg.Page,
		PerPage:    pg.PerPage,
		Total:      total,
		TotalPages: utils.TotalPages(total, pg.PerPage),
	}, nil
}

// get reads a card without locking and classifies store errors.
func (s *service) get(ctx context.Context, cardID uuid.UUID) (*models.GiftCard, error) {
	card, err := s.repo.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, repositories.ErrGiftCardNotFound) {
			return nil, apperrors.ErrCardNotFound
		}
		return nil, apperrors.Store("Failed to get gift card", err)
	}
	return card, nil
}

// observe records duration and outcome of an operation and logs failures.
func (s *service) observe(op string, start time.Time, cardID uuid.UUID, errp *error) {
	s.metrics.RecordOperationDuration(op, time.Since(start))

	err := *errp
	if err == nil {
		s.metrics.RecordOperationResult(op, ResultSuccess)
		return
	}

	fields := []zap.Field{zap.String("operation", op), zap.Error(err)}
	if cardID != uuid.Nil {
		fields = append(fields, zap.Stringer("card_id", cardID))
	}

	var de *apperrors.DomainError
	code := "UNKNOWN"
	if errors.As(err, &de) {
		code = de.Code
	}
	fields = append(fields, zap.String("code", code))
	s.metrics.RecordError(op, code)

	if apperrors.KindOf(err) == apperrors.KindStore {
		s.metrics.RecordOperationResult(op, ResultFailed)
		s.logger.Error("gift card operation failed", fields...)
		return
	}
	s.metrics.RecordOperationResult(op, ResultRejected)
	s.logger.Warn("gift card operation rejected", fields...)
}
