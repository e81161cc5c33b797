package util

import (
	"time"

	"github.com/dustin/go-humanize"
)

const dateLayoutBR = "02/01/2006"

// FormatBRL formats an amount in Brazilian reais.
// Example: 1234.5 -> "R$ 1.234,50".
func FormatBRL(amount float64) string {
	if amount < 0 {
		return "-R$ " + humanize.FormatFloat("#.###,##", -amount)
	}
	return "R$ " + humanize.FormatFloat("#.###,##", amount)
}

// FormatDate formats t as dd/mm/yyyy.
func FormatDate(t time.Time) string {
	return t.Format(dateLayoutBR)
}

// DaysUntil counts whole days from now until deadline, rounding a partial
// day up. It is negative once the deadline has passed.
func DaysUntil(now, deadline time.Time) int {
	d := deadline.Sub(now)
	days := int(d / (24 * time.Hour))
	if d > 0 && d%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// TruncateContent shortens s to maxLength runes, appending "..." when cut.
func TruncateContent(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	return string(runes[:maxLength]) + "..."
}

func BoolPointer(b bool) *bool {
	return &b
}

func IntPointer(i int) *int {
	return &i
}

func Float64Pointer(f float64) *float64 {
	return &f
}
