package common

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100

	// Amounts are held in millionths of a dollar
	currencyDecimals = 6
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintSeparatorNewline prints a separator with a newline before it
func PrintSeparatorNewline(char string, width int) {
	fmt.Println("\n" + strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(message string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// BoxDetailPrefix returns the prefix for detail lines under list items
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}

// FormatCurrency renders an amount in smallest units as US dollars,
// e.g. 1234567890 -> "$1,234.57".
func FormatCurrency(amount uint64) string {
	dollars := decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -currencyDecimals)
	fixed := dollars.StringFixed(2)

	whole, frac, _ := strings.Cut(fixed, ".")
	return "$" + groupThousands(whole) + "." + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// ParseCurrency converts a dollar amount such as "1,250.50" or "$250" to
// smallest units. Amounts finer than one unit are rejected.
func ParseCurrency(s string) (uint64, error) {
	clean := strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(s), "$"), ",", "")
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q must not be negative", s)
	}
	units := d.Shift(currencyDecimals)
	if !units.Equal(units.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has too many decimal places", s)
	}
	if units.GreaterThan(decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)) {
		return 0, fmt.Errorf("amount %q is too large", s)
	}
	return units.BigInt().Uint64(), nil
}

// FormatHours renders a decimal hour count without trailing zeros, e.g. "3.5h".
func FormatHours(hours decimal.Decimal) string {
	return hours.String() + "h"
}

func fromNanos(ts int64) time.Time {
	return time.Unix(0, ts)
}

// FormatDate renders a nanosecond timestamp as "Jan 02, 2006".
func FormatDate(ts int64) string {
	return fromNanos(ts).Format("Jan 02, 2006")
}

// FormatDateTime renders a nanosecond timestamp as "Jan 02, 2006 at 3:04 PM".
func FormatDateTime(ts int64) string {
	return fromNanos(ts).Format("Jan 02, 2006 at 3:04 PM")
}

// FormatTimeAgo renders the distance from a nanosecond timestamp to now,
// e.g. "5 minutes ago" or "in about 2 hours".
func FormatTimeAgo(ts int64) string {
	return timeAgo(fromNanos(ts), time.Now())
}

func timeAgo(t, now time.Time) string {
	d := now.Sub(t)
	future := d < 0
	if future {
		d = -d
	}

	text := distance(d)
	if future {
		return "in " + text
	}
	return text + " ago"
}

func distance(d time.Duration) string {
	const (
		day   = 24 * time.Hour
		month = 30 * day
		year  = 365 * day
	)

	switch {
	case d < 30*time.Second:
		return "less than a minute"
	case d < 90*time.Second:
		return "1 minute"
	case d < 45*time.Minute:
		return fmt.Sprintf("%d minutes", int(d.Round(time.Minute)/time.Minute))
	case d < 90*time.Minute:
		return "about 1 hour"
	case d < day:
		return fmt.Sprintf("about %d hours", int(d.Round(time.Hour)/time.Hour))
	case d < 42*time.Hour:
		return "1 day"
	case d < month:
		return fmt.Sprintf("%d days", int(d.Round(day)/day))
	case d < 45*day:
		return "about 1 month"
	case d < year:
		return fmt.Sprintf("%d months", int(d.Round(month)/month))
	case d < 2*year:
		return "about 1 year"
	default:
		return fmt.Sprintf("over %d years", int(d/year))
	}
}

// TruncatePrincipal shortens principals longer than 12 characters to their
// first and last six characters.
func TruncatePrincipal(principal string) string {
	if len(principal) <= 12 {
		return principal
	}
	return principal[:6] + "..." + principal[len(principal)-6:]
}

// GetInitials returns the upper-case initials of the first and last word
// of name.
func GetInitials(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return initial(parts[0])
	default:
		return initial(parts[0]) + initial(parts[len(parts)-1])
	}
}

func initial(word string) string {
	for _, r := range word {
		return string(unicode.ToUpper(r))
	}
	return ""
}

// StatusLabel prefixes an engagement, milestone or payment request status
// with a marker for terminal output.
func StatusLabel(status string) string {
	switch status {
	case "Active":
		return "● Active"
	case "Pending", "Paused":
		return "◌ " + status
	case "Completed", "Approved", "Paid":
		return "✓ " + status
	case "Cancelled", "Rejected", "Disputed":
		return "✗ " + status
	default:
		return status
	}
}
