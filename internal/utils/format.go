package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney renders minor units as dollars, e.g. 5000 -> "$50.00".
func FormatMoney(minorUnits int64) string {
	amount := decimal.New(minorUnits, -2)
	if amount.IsNegative() {
		return "-$" + amount.Neg().StringFixed(2)
	}
	return "$" + amount.StringFixed(2)
}

// FormatPhoneForDisplay formats 10-digit and 11-digit (leading 1) North
// American numbers as "(555) 123-4567". Other numbers are returned unchanged.
func FormatPhoneForDisplay(phone string) string {
	digits := strings.TrimPrefix(phone, "+")
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 || strings.Trim(digits, "0123456789") != "" {
		return phone
	}
	return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
}
