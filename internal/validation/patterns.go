package validation

import "regexp"

var (
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	nameRegex  = regexp.MustCompile(`^[a-zA-Z\s\-'.]{2,50}$`)
)

// IsValidPhone reports whether phone is 10 to 15 digits with an optional leading +.
func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// IsValidPersonName reports whether name is 2 to 50 letters, spaces, hyphens,
// apostrophes or periods.
func IsValidPersonName(name string) bool {
	return nameRegex.MatchString(name)
}
