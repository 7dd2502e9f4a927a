package auth

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is enforced by the API registration flow.
const MinPasswordLength = 8

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var commonPasswords = map[string]bool{
	"password": true, "password1": true, "password123": true, "12345678": true,
	"123456789": true, "1234567890": true, "qwerty123": true, "qwertyuiop": true,
	"iloveyou": true, "sunshine": true, "football": true, "baseball": true,
	"welcome1": true, "admin123": true, "letmein1": true, "trustno1": true,
	"abc12345": true, "11111111": true, "00000000": true, "princess": true,
	"dragon12": true, "monkey12": true, "passw0rd": true, "superman": true,
}

// ValidatePasswordStrength returns every rule the password breaks. attrs are
// user attributes (username, email, names) the password must not resemble.
func ValidatePasswordStrength(password string, attrs ...string) []string {
	var problems []string

	if len([]rune(password)) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf(
			"This password is too short. It must contain at least %d characters.", MinPasswordLength))
	}
	if commonPasswords[strings.ToLower(password)] {
		problems = append(problems, "This password is too common.")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		problems = append(problems, "This password is entirely numeric.")
	}
	if tooSimilar(password, attrs) {
		problems = append(problems, "The password is too similar to your personal information.")
	}
	return problems
}

// maxSimilarity is the quick-ratio at or above which a password counts as
// resembling a user attribute.
const maxSimilarity = 0.7

var attributeSeparators = regexp.MustCompile(`\W+`)

// tooSimilar compares the password with each attribute and with each
// word-separated part of it ("jdoe@example.com" also yields "jdoe",
// "example" and "com").
func tooSimilar(password string, attrs []string) bool {
	pw := strings.ToLower(password)
	for _, attr := range attrs {
		value := strings.ToLower(attr)
		if value == "" {
			continue
		}
		parts := append(attributeSeparators.Split(value, -1), value)
		for _, part := range parts {
			if part == "" || lengthRatioExceeded(pw, part) {
				continue
			}
			if quickRatio(pw, part) >= maxSimilarity {
				return true
			}
		}
	}
	return false
}

// lengthRatioExceeded skips parts so short next to the password that no
// overlap could make them similar.
func lengthRatioExceeded(password, part string) bool {
	pwLen, partLen := len([]rune(password)), len([]rune(part))
	return pwLen >= 10*partLen && float64(partLen) < maxSimilarity/2*float64(pwLen)
}

// quickRatio is 2*M/T where M counts characters the two strings share
// (as multisets) and T is their combined length.
func quickRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	avail := make(map[rune]int, len(rb))
	for _, r := range rb {
		avail[r]++
	}
	matches := 0
	for _, r := range ra {
		if avail[r] > 0 {
			avail[r]--
			matches++
		}
	}
	return 2 * float64(matches) / float64(total)
}
