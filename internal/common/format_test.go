package common

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount uint64
		want   string
	}{
		{0, "$0.00"},
		{1, "$0.00"},
		{5_000, "$0.01"},
		{250_000_000, "$250.00"},
		{1_234_567_890, "$1,234.57"},
		{200_000_000_000, "$200,000.00"},
		{1_000_000_000_000_000, "$1,000,000,000.00"},
	}

	for _, tt := range tests {
		if got := FormatCurrency(tt.amount); got != tt.want {
			t.Errorf("FormatCurrency(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatHours(t *testing.T) {
	if got := FormatHours(decimal.RequireFromString("3.50")); got != "3.5h" {
		t.Errorf("FormatHours = %q, want 3.5h", got)
	}
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2025, time.March, 5, 14, 7, 0, 0, time.Local).UnixNano()

	if got := FormatDate(ts); got != "Mar 05, 2025" {
		t.Errorf("FormatDate = %q", got)
	}
	if got := FormatDateTime(ts); got != "Mar 05, 2025 at 2:07 PM" {
		t.Errorf("FormatDateTime = %q", got)
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "less than a minute ago"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{time.Hour, "about 1 hour ago"},
		{3 * time.Hour, "about 3 hours ago"},
		{30 * time.Hour, "1 day ago"},
		{4 * 24 * time.Hour, "4 days ago"},
		{35 * 24 * time.Hour, "about 1 month ago"},
		{90 * 24 * time.Hour, "3 months ago"},
		{400 * 24 * time.Hour, "about 1 year ago"},
		{3 * 365 * 24 * time.Hour, "over 3 years ago"},
		{-2 * time.Hour, "in about 2 hours"},
	}

	for _, tt := range tests {
		if got := timeAgo(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("timeAgo(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestTruncatePrincipal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"2vxsx-fae", "2vxsx-fae"},
		{"abcdef123456", "abcdef123456"},
		{"rrkah-fqaaa-aaaaa-aaaaq-cai", "rrkah-...aq-cai"},
	}

	for _, tt := range tests {
		if got := TruncatePrincipal(tt.in); got != tt.want {
			t.Errorf("TruncatePrincipal(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetInitials(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"jane", "J"},
		{"Jane Doe", "JD"},
		{"  mary   ann  smith ", "MS"},
		{"élodie durand", "ÉD"},
	}

	for _, tt := range tests {
		if got := GetInitials(tt.in); got != tt.want {
			t.Errorf("GetInitials(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	if got := StatusLabel("Active"); got != "● Active" {
		t.Errorf("StatusLabel(Active) = %q", got)
	}
	if got := StatusLabel("Rejected"); got != "✗ Rejected" {
		t.Errorf("StatusLabel(Rejected) = %q", got)
	}
	if got := StatusLabel("Unknown"); got != "Unknown" {
		t.Errorf("StatusLabel(Unknown) = %q", got)
	}
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"250", 250_000_000, false},
		{"$1,234.57", 1_234_570_000, false},
		{" 0.000001 ", 1, false},
		{"0", 0, false},
		{"0.0000001", 0, true},
		{"-5", 0, true},
		{"ten", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseCurrency(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCurrency(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCurrency(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if got := FormatCurrency(mustParse(t, "$200,000")); got != "$200,000.00" {
		t.Errorf("round trip = %q", got)
	}
}

func mustParse(t *testing.T, s string) uint64 {
	t.Helper()
	v, err := ParseCurrency(s)
	if err != nil {
		t.Fatalf("ParseCurrency(%q): %v", s, err)
	}
	return v
}
