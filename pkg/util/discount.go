package util

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"
)

const base36Upper = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Discount is the incentive handed out on the thank-you screen
type Discount struct {
	Code          string    `json:"code"`
	Percentage    int       `json:"percentage"`
	ValidDays     int       `json:"validDays"`
	ExpiresOn     time.Time `json:"expiresOn"`
	ExpiryDisplay string    `json:"expiryDisplay"`
}

// NewDiscount builds the code and expiry for a customer on the given day
func NewDiscount(customerName string, percentage, validDays int, now time.Time) Discount {
	expiry := now.AddDate(0, 0, validDays)
	return Discount{
		Code:          GenerateDiscountCode(customerName, validDays, now),
		Percentage:    percentage,
		ValidDays:     validDays,
		ExpiresOn:     expiry,
		ExpiryDisplay: expiry.Format("January 2, 2006"),
	}
}

// GenerateDiscountCode returns nameCode + DDMMYY of (now + validDays).
// Codes are low entropy on purpose and may collide between customers.
func GenerateDiscountCode(customerName string, validDays int, now time.Time) string {
	dateCode := now.AddDate(0, 0, validDays).Format("020106")

	parts := strings.Fields(customerName)
	switch len(parts) {
	case 0:
		return randomBase36(2) + dateCode
	case 1:
		return strings.ToUpper(firstRunes(parts[0], 2)) + dateCode
	default:
		first := firstRunes(parts[0], 1)
		last := firstRunes(parts[len(parts)-1], 1)
		return strings.ToUpper(first+last) + dateCode
	}
}

func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func randomBase36(n int) string {
	var b strings.Builder
	max := big.NewInt(int64(len(base36Upper)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			b.WriteByte('X')
			continue
		}
		b.WriteByte(base36Upper[idx.Int64()])
	}
	return b.String()
}
