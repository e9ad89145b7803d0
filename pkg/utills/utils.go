package utils

// ValidPassword requires at least one ASCII letter and one ASCII digit.
func ValidPassword(s string) bool {
	hasLetter, hasDigit := false, false
	for _, r := range s {
		switch {
		case ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z'):
			hasLetter = true
		case '0' <= r && r <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}
