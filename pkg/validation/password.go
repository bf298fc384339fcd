package validation

import (
	"strings"
	"unicode"
)

const StrongPasswordMessage = "Password must be at least 8 characters long, contain at least one uppercase letter, one special character, and one digit."

const (
	passwordSymbols  = "@$!%*#?&"
	requiredSymbols  = "*#$"
	minPasswordChars = 8
)

// IsStrongPassword applies the registration rule: at least 8 characters
// from [A-Za-z0-9@$!%*#?&] with an uppercase letter, a digit and one of *#$.
func IsStrongPassword(password string) bool {
	if len(password) < minPasswordChars {
		return false
	}

	var hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			if strings.ContainsRune(requiredSymbols, r) {
				hasSymbol = true
			}
		default:
			return false
		}
	}
	return hasUpper && hasDigit && hasSymbol
}

var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"12345678":    {},
	"123456789":   {},
	"1234567890":  {},
	"qwerty123":   {},
	"qwertyuiop":  {},
	"iloveyou":    {},
	"admin123":    {},
	"letmein1":    {},
	"welcome1":    {},
	"abc12345":    {},
	"11111111":    {},
	"sunshine":    {},
	"football":    {},
}

// GeneralPasswordProblems checks a new password against the platform rules
// used when a password is changed: minimum length, not entirely numeric,
// not a common password and not similar to the account email.
func GeneralPasswordProblems(password, email string) []string {
	var problems []string

	if len(password) < minPasswordChars {
		problems = append(problems, "This password is too short. It must contain at least 8 characters.")
	}
	if _, common := commonPasswords[strings.ToLower(password)]; common {
		problems = append(problems, "This password is too common.")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		problems = append(problems, "This password is entirely numeric.")
	}
	if similarToEmail(password, email) {
		problems = append(problems, "The password is too similar to the email address.")
	}
	return problems
}

func similarToEmail(password, email string) bool {
	local, _, _ := strings.Cut(strings.ToLower(email), "@")
	if len(local) < 3 {
		return false
	}
	p := strings.ToLower(password)
	return strings.Contains(p, local) || strings.Contains(local, p)
}
