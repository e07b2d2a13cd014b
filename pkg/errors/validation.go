package errors

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Input limits.
const (
	MaxEmailLength       = 254
	MinPasswordLength    = 6
	MaxPasswordLength    = 72 // bcrypt ignores anything longer
	MaxNameLength        = 120
	MaxWebsiteLength     = 2048
	MaxDescriptionLength = 4000
	MaxFieldLength       = 500
)

// ValidateEmail validates an account email address.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return New(ErrCodeInvalidEmail, "email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return New(ErrCodeInvalidEmail, "email too long (max %d characters)", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return New(ErrCodeInvalidEmail, "invalid email address: %q", email)
	}
	return nil
}

// ValidatePassword validates a sign-up password.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return New(ErrCodeInvalidPassword, "password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return New(ErrCodeInvalidPassword, "password too long (max %d bytes)", MaxPasswordLength)
	}
	return nil
}

// ValidateFullName validates a profile display name. Empty is allowed.
func ValidateFullName(name string) error {
	if utf8.RuneCountInString(name) > MaxNameLength {
		return New(ErrCodeInvalidInput, "name too long (max %d characters)", MaxNameLength)
	}
	if hasControl(name) {
		return New(ErrCodeInvalidInput, "name contains invalid control characters")
	}
	return nil
}

// websiteRegex matches a bare host name with optional path, e.g. "acme.io/shop".
var websiteRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?)+(/\S*)?$`)

// ValidateWebsite validates a profile website. Empty is allowed; otherwise
// it must be an http(s) URL or a bare host name.
func ValidateWebsite(site string) error {
	if site == "" {
		return nil
	}
	if len(site) > MaxWebsiteLength {
		return New(ErrCodeInvalidWebsite, "website too long (max %d characters)", MaxWebsiteLength)
	}
	if hasControl(site) {
		return New(ErrCodeInvalidWebsite, "website contains invalid characters")
	}
	if strings.Contains(site, "://") {
		return ValidateURL(site)
	}
	if !websiteRegex.MatchString(site) {
		return New(ErrCodeInvalidWebsite, "invalid website: %q", site)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidWebsite, "URL must use http or https scheme")
	}

	return nil
}

// ValidateDescription validates the text submitted for an audit. Blank
// input is rejected so it is never dispatched.
func ValidateDescription(text string) error {
	if strings.TrimSpace(text) == "" {
		return New(ErrCodeEmptyAudit, "describe the website to audit")
	}
	if utf8.RuneCountInString(text) > MaxDescriptionLength {
		return New(ErrCodeInvalidInput, "description too long (max %d characters)", MaxDescriptionLength)
	}
	return nil
}

// ValidateStats validates dashboard metric fields.
func ValidateStats(goal, income string, clients int) error {
	if clients < 0 {
		return New(ErrCodeInvalidStats, "clients cannot be negative")
	}
	for field, v := range map[string]string{"goal": goal, "income": income} {
		if utf8.RuneCountInString(v) > MaxFieldLength {
			return New(ErrCodeInvalidStats, "%s too long (max %d characters)", field, MaxFieldLength)
		}
		if hasControl(v) {
			return New(ErrCodeInvalidStats, "%s contains invalid control characters", field)
		}
	}
	return nil
}

func hasControl(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
