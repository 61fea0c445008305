package domain

import (
	"fmt"
	"strings"
)

// LoyaltyLevel is the tier of a loyalty account. The tier determines the
// discount rate applied when points are earned on a closed purchase.
type LoyaltyLevel string

const (
	// LevelL1 is the entry tier, 2% discount rate
	LevelL1 LoyaltyLevel = "L1"

	// LevelL2 is the upper tier, 4% discount rate
	LevelL2 LoyaltyLevel = "L2"
)

// ParseLoyaltyLevel parses a level token case-insensitively.
func ParseLoyaltyLevel(token string) (LoyaltyLevel, error) {
	switch strings.ToUpper(token) {
	case "L1":
		return LevelL1, nil
	case "L2":
		return LevelL2, nil
	default:
		return "", fmt.Errorf("invalid loyalty level %q: must be L1 or L2", token)
	}
}

// DiscountRate returns the earn rate for the level.
func (l LoyaltyLevel) DiscountRate() float64 {
	switch l {
	case LevelL2:
		return 0.04
	default:
		return 0.02
	}
}

func (l LoyaltyLevel) String() string {
	return string(l)
}
