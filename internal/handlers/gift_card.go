package handlers

import (
	"fmt"
	"strings"

	apperrors "giftledger/internal/errors"
	"giftledger/internal/middleware"
	"giftledger/internal/models"
	"giftledger/internal/services/giftcard"
	qr "giftledger/internal/services/qr_code"
	"giftledger/internal/utils"
	"giftledger/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GiftCardHandler struct {
	giftCardService giftcard.Service
	qrService       qr.Service
	logger          *zap.Logger
}

func NewGiftCardHandler(giftCardService giftcard.Service, qrService qr.Service, logger *zap.Logger) *GiftCardHandler {
	return &GiftCardHandler{
		giftCardService: giftCardService,
		qrService:       qrService,
		logger:          logger,
	}
}

// IssueGiftCard handles POST /gift-cards
func (h *GiftCardHandler) IssueGiftCard(c *fiber.Ctx) error {
	var req models.IssueGiftCardRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}
	// An authenticated issuer may only issue in its own name.
	if issuer, ok := c.Locals(middleware.IssuerLocalKey).(string); ok && issuer != "" {
		switch strings.TrimSpace(req.IssuerName) {
		case "":
			req.IssuerName = issuer
		case issuer:
		default:
			return utils.Error(c, fiber.StatusForbidden, "Issuer name does not match token")
		}
	}
	v := validation.New()
	v.Struct(req)
	if !v.Valid() {
		return utils.BadRequest(c, v.FirstError().Error())
	}

	card, err := h.giftCardService.Issue(c.UserContext(), giftcard.IssueRequest{
		IssuerName:     req.IssuerName,
		RecipientName:  req.RecipientName,
		RecipientPhone: req.RecipientPhone,
		Balance:        req.Balance,
		ExpirationDays: req.ExpirationDays,
	})
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.Created(c, h.toResponse(card, false), "Gift card created successfully")
}

// GetGiftCard handles GET /gift-cards/:id
func (h *GiftCardHandler) GetGiftCard(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return utils.BadRequest(c, "Invalid gift card ID")
	}

	card, err := h.giftCardService.Inspect(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.Success(c, h.toResponse(card, true), "")
}

// AcceptGiftCard handles POST /gift-cards/:id/accept
func (h *GiftCardHandler) AcceptGiftCard(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return utils.BadRequest(c, "Invalid gift card ID")
	}

	var req models.AcceptGiftCardRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}
	v := validation.New()
	v.Struct(req)
	if !v.Valid() {
		return utils.BadRequest(c, v.FirstError().Error())
	}

	card, err := h.giftCardService.Accept(c.UserContext(), id, req.RecipientPhone)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.Success(c, h.toResponse(card, true), "Gift card accepted successfully")
}

// UseGiftCard handles POST /gift-cards/:id/use
func (h *GiftCardHandler) UseGiftCard(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return utils.BadRequest(c, "Invalid gift card ID")
	}

	var req models.UseGiftCardRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}
	v := validation.New()
	v.Struct(req)
	if !v.Valid() {
		return utils.BadRequest(c, v.FirstError().Error())
	}

	card, err := h.giftCardService.Redeem(c.UserContext(), giftcard.RedeemRequest{
		CardID:   id,
		Amount:   req.Amount,
		Merchant: req.Merchant,
	})
	if err != nil {
		return h.handleError(c, err)
	}

	msg := fmt.Sprintf("Payment of %s processed successfully", utils.FormatMoney(req.Amount))
	return utils.Success(c, h.toResponse(card, false), msg)
}

// GetQRCode handles GET /gift-cards/:id/qr-code
func (h *GiftCardHandler) GetQRCode(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return utils.BadRequest(c, "Invalid gift card ID")
	}

	card, err := h.giftCardService.Inspect(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	uri, err := h.qrService.Render(card.ID)
	if err != nil {
		h.logger.Error("failed to render QR code", zap.Stringer("card_id", card.ID), zap.Error(err))
		return utils.InternalError(c, "Failed to generate QR code")
	}

	return utils.Success(c, uri, "")
}

// ListByRecipient handles GET /gift-cards/by-recipient/:phone
func (h *GiftCardHandler) ListByRecipient(c *fiber.Ctx) error {
	pg := utils.GetPagination(c)

	page, err := h.giftCardService.ListByRecipient(c.UserContext(), c.Params("phone"), pg.Page, pg.PerPage)
	if err != nil {
		return h.handleError(c, err)
	}

	items := make([]models.GiftCardResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, h.toResponse(&page.Items[i], false))
	}

	return utils.Success(c, models.Page[models.GiftCardResponse]{
		Items:      items,
		Page:       page.Page,
		PerPage:    page.PerPage,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	}, "")
}

// VerifyGiftCard handles GET /gift-cards/:id/verify
func (h *GiftCardHandler) VerifyGiftCard(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return utils.BadRequest(c, "Invalid gift card ID")
	}

	verification, err := h.giftCardService.Verify(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.Success(c, verification, "")
}

// GetTransactions handles GET /gift-cards/:id/transactions
func (h *GiftCardHandler) GetTransactions(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return utils.BadRequest(c, "Invalid gift card ID")
	}
	pg := utils.GetPagination(c)

	page, err := h.giftCardService.ListTransactions(c.UserContext(), id, pg.Page, pg.PerPage)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.Success(c, page, "")
}

func parseID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// handleError maps a ledger error to its status. Store failures are logged
// and reported without detail.
func (h *GiftCardHandler) handleError(c *fiber.Ctx, err error) error {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindStore {
		h.logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return utils.InternalError(c, "Internal server error")
	}
	return utils.Error(c, apperrors.HTTPStatus(kind), apperrors.MessageOf(err))
}

func (h *GiftCardHandler) toResponse(card *models.GiftCard, withQR bool) models.GiftCardResponse {
	resp := models.GiftCardResponse{
		ID:                      card.ID,
		IssuerName:              card.IssuerName,
		RecipientName:           card.RecipientName,
		RecipientPhone:          card.RecipientPhone,
		DisplayPhone:            utils.FormatPhoneForDisplay(card.RecipientPhone),
		Balance:                 card.Balance,
		InitialBalance:          card.InitialBalance,
		FormattedBalance:        utils.FormatMoney(card.Balance),
		FormattedInitialBalance: utils.FormatMoney(card.InitialBalance),
		ExpirationDate:          card.ExpirationDate,
		IsAccepted:              card.IsAccepted,
		IsActive:                card.IsActive,
		CreatedAt:               card.CreatedAt,
	}
	if withQR {
		uri, err := h.qrService.Render(card.ID)
		if err != nil {
			h.logger.Warn("failed to render QR code", zap.Stringer("card_id", card.ID), zap.Error(err))
		} else {
			resp.QRCode = &uri
		}
	}
	return resp
}
