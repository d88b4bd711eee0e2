package errors

var (
	ErrCardNotFound = NotFound("GIFT_CARD_NOT_FOUND", "Gift card not found")

	ErrInvalidBalance        = Validation("INVALID_BALANCE", "Balance must be positive")
	ErrBalanceTooLarge       = Validation("BALANCE_TOO_LARGE", "Balance exceeds the maximum allowed")
	ErrInvalidExpirationDays = Validation("INVALID_EXPIRATION_DAYS", "Expiration days must be positive")
	ErrExpirationTooLong     = Validation("EXPIRATION_TOO_LONG", "Expiration days exceed the maximum allowed")
	ErrInvalidIssuerName     = Validation("INVALID_ISSUER_NAME", "Issuer name must be 2-50 letters")
	ErrInvalidRecipientName  = Validation("INVALID_RECIPIENT_NAME", "Recipient name must be 2-50 letters")
	ErrInvalidPhone          = Validation("INVALID_PHONE", "Invalid phone number")

	ErrPhoneMismatch   = Validation("PHONE_MISMATCH", "Phone number does not match")
	ErrAlreadyAccepted = Validation("ALREADY_ACCEPTED", "Gift card already accepted")
	ErrCardExpired     = Validation("CARD_EXPIRED", "Gift card has expired")

	ErrCardInactive        = Validation("CARD_INACTIVE", "Gift card is not active")
	ErrCardNotAccepted     = Validation("CARD_NOT_ACCEPTED", "Gift card has not been accepted")
	ErrInvalidAmount       = Validation("INVALID_AMOUNT", "Amount must be positive")
	ErrMerchantRequired    = Validation("MERCHANT_REQUIRED", "Merchant is required")
	ErrMerchantTooLong     = Validation("MERCHANT_TOO_LONG", "Merchant must be at most 100 characters")
	ErrInsufficientBalance = Validation("INSUFFICIENT_BALANCE", "Insufficient balance")

	ErrDuplicateCard = Conflict("DUPLICATE_GIFT_CARD", "Gift card already exists")
)
