package credits

import (
	"strings"
	"testing"

	decimal "github.com/shopspring/decimal"

	"github.com/ncecere/usage_dashboard/internal/config"
	"github.com/ncecere/usage_dashboard/internal/models"
)

func TestTextCredits(t *testing.T) {
	calc := Default()
	tests := []struct {
		name string
		text string
		want float64
	}{
		{name: "empty returns minimum", text: "", want: 1.00},
		{name: "short returns minimum", text: "Hi", want: 1.00},
		{name: "exactly at floor", text: strings.Repeat("a", 10), want: 1.00},
		{name: "just above floor", text: strings.Repeat("a", 11), want: 1.10},
		{name: "hundred tokens", text: strings.Repeat("a", 400), want: 40.00},
		{name: "rounds to cents", text: strings.Repeat("a", 156), want: 15.60},
		{name: "three characters", text: "abc", want: 1.00},
		{name: "question", text: "Are there any restrictions on alterations or improvements?", want: 5.80},
		{name: "counts runes not bytes", text: strings.Repeat("é", 40), want: 4.00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calc.TextCredits(tt.text); got != tt.want {
				t.Fatalf("TextCredits(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTextCreditsNeverBelowMinimum(t *testing.T) {
	calc := Default()
	for n := 0; n < 600; n++ {
		text := strings.Repeat("x", n)
		got := calc.TextCredits(text)
		if got < 1.00 {
			t.Fatalf("len %d: got %v below minimum", n, got)
		}
		raw := decimal.NewFromInt(int64(n)).Div(decimal.NewFromInt(4)).Div(decimal.NewFromInt(100)).Mul(decimal.NewFromInt(40))
		want := decimal.Max(raw.Round(2), decimal.NewFromInt(1)).InexactFloat64()
		if got != want {
			t.Fatalf("len %d: got %v want %v", n, got, want)
		}
	}
}

func TestCalculateUsesReportPrice(t *testing.T) {
	calc := Default()
	reportID := int64(10)
	msg := models.Message{ID: 1, Text: strings.Repeat("a", 4000), ReportID: &reportID}

	if got := calc.Calculate(msg, &models.Report{ID: 10, Name: "Test Report", CreditCost: 30}); got != 30.00 {
		t.Fatalf("expected report cost, got %v", got)
	}
	if got := calc.Calculate(msg, &models.Report{ID: 10, CreditCost: 0}); got != 0 {
		t.Fatalf("expected zero-cost report to bypass minimum, got %v", got)
	}
	if got := calc.Calculate(msg, &models.Report{ID: 10, CreditCost: 12.345}); got != 12.35 {
		t.Fatalf("expected report cost rounded half up, got %v", got)
	}
	if got := calc.Calculate(msg, nil); got != 400.00 {
		t.Fatalf("expected text estimate without report, got %v", got)
	}
}

func TestWordCharactersBasis(t *testing.T) {
	if got := WordCharacters("It's a well-known fact: 42 apples!"); got != "It'sawell-knownfactapples" {
		t.Fatalf("unexpected word characters %q", got)
	}

	calc := FromConfig(config.CreditsConfig{
		BaseRate:           40,
		CharactersPerToken: 4,
		Minimum:            1,
		TokenBasis:         config.TokenBasisWordCharacters,
	})
	// 100 letters plus 100 digits and spaces: only the letters are billed.
	text := strings.Repeat("ab 45", 50)
	if got := calc.TextCredits(text); got != 10.00 {
		t.Fatalf("expected 10.00 for 100 word characters, got %v", got)
	}
	if got := Default().TextCredits(text); got != 25.00 {
		t.Fatalf("expected 25.00 for 250 characters, got %v", got)
	}
}

func TestFromConfigCustomRates(t *testing.T) {
	calc := FromConfig(config.CreditsConfig{BaseRate: 80, CharactersPerToken: 2, Minimum: 0.5})
	// 10 chars => 5 tokens => 4.00 credits.
	if got := calc.TextCredits(strings.Repeat("z", 10)); got != 4.00 {
		t.Fatalf("unexpected custom-rate credits %v", got)
	}
	if got := calc.TextCredits(""); got != 0.5 {
		t.Fatalf("expected custom minimum, got %v", got)
	}
}
