// Package luhn validates card identifiers with the Luhn checksum.
package luhn

import "fmt"

// Checker validates card numbers using the Luhn algorithm. It implements
// domain.CardChecker.
type Checker struct{}

// Check reports whether cardID is a valid Luhn number of plausible card
// length. Spaces and dashes are ignored.
func (Checker) Check(cardID string) error {
	var digits []int
	for _, r := range cardID {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, int(r-'0'))
		case r == ' ' || r == '-':
			// separators are fine
		default:
			return fmt.Errorf("invalid card number: unexpected character %q", r)
		}
	}

	if len(digits) < 13 || len(digits) > 19 {
		return fmt.Errorf("invalid card number length: must be 13-19 digits")
	}

	sum := 0
	isSecond := false

	for i := len(digits) - 1; i >= 0; i-- {
		digit := digits[i]

		if isSecond {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}

		sum += digit
		isSecond = !isSecond
	}

	if sum%10 != 0 {
		return fmt.Errorf("invalid card number: failed Luhn check")
	}

	return nil
}
