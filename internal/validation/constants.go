package validation

const (
	// Amount limits, in minor currency units
	MinBalance = 1
	MaxBalance = 1_000_000

	// Expiration limits, in days
	MinExpirationDays = 1
	MaxExpirationDays = 1825

	// String lengths
	MaxMerchantLength = 100
)
