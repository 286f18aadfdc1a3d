package credits

import (
	"regexp"
	"unicode/utf8"

	decimal "github.com/shopspring/decimal"

	"github.com/ncecere/usage_dashboard/internal/config"
	"github.com/ncecere/usage_dashboard/internal/models"
)

// Basis selects which characters count towards the token estimate.
type Basis string

const (
	// BasisCharacters counts every Unicode code point of the message.
	BasisCharacters     Basis = config.TokenBasisCharacters
	// BasisWordCharacters counts only letters, apostrophes and hyphens.
	BasisWordCharacters Basis = config.TokenBasisWordCharacters
)

// Rates holds the text pricing constants.
type Rates struct {
	BaseRate           decimal.Decimal
	CharactersPerToken decimal.Decimal
	Minimum            decimal.Decimal
}

// DefaultRates charges 40 credits per 100 tokens, 4 characters per token, 1.00 minimum.
var DefaultRates = Rates{
	BaseRate:           decimal.NewFromInt(40),
	CharactersPerToken: decimal.NewFromInt(4),
	Minimum:            decimal.NewFromInt(1),
}

var (
	hundred       = decimal.NewFromInt(100)
	nonWordRunes  = regexp.MustCompile(`[^a-zA-Z'\-]`)
	defaultCalc   = NewCalculator(DefaultRates, BasisCharacters)
	creditsPlaces = int32(2)
)

// Calculator prices messages either from their report or from estimated tokens.
type Calculator struct {
	rates Rates
	basis Basis
}

func NewCalculator(rates Rates, basis Basis) *Calculator {
	if rates.CharactersPerToken.Sign() <= 0 {
		rates.CharactersPerToken = DefaultRates.CharactersPerToken
	}
	if basis != BasisWordCharacters {
		basis = BasisCharacters
	}
	return &Calculator{rates: rates, basis: basis}
}

// FromConfig builds a calculator from the credits config section.
func FromConfig(cfg config.CreditsConfig) *Calculator {
	return NewCalculator(Rates{
		BaseRate:           decimal.NewFromFloat(cfg.BaseRate),
		CharactersPerToken: decimal.NewFromFloat(cfg.CharactersPerToken),
		Minimum:            decimal.NewFromFloat(cfg.Minimum),
	}, Basis(cfg.TokenBasis))
}

// Default returns the calculator using DefaultRates over all characters.
func Default() *Calculator {
	return defaultCalc
}

// Calculate returns the credits charged for msg. A non-nil report is authoritative
// and the message text is ignored.
func (c *Calculator) Calculate(msg models.Message, report *models.Report) float64 {
	if report != nil {
		return ReportCredits(report.CreditCost)
	}
	return c.TextCredits(msg.Text)
}

// TextCredits estimates credits for a message without a report.
// The minimum is applied after rounding.
func (c *Calculator) TextCredits(text string) float64 {
	if c == nil {
		c = defaultCalc
	}
	if c.basis == BasisWordCharacters {
		text = WordCharacters(text)
	}
	chars := decimal.NewFromInt(int64(utf8.RuneCountInString(text)))
	tokens := chars.Div(c.rates.CharactersPerToken)
	raw := tokens.Div(hundred).Mul(c.rates.BaseRate)
	rounded := raw.Round(creditsPlaces)
	return decimal.Max(rounded, c.rates.Minimum).Round(creditsPlaces).InexactFloat64()
}

// ReportCredits rounds a report price to two decimals. No minimum applies.
func ReportCredits(cost float64) float64 {
	return Round(cost)
}

// Round rounds half away from zero to two decimals.
func Round(value float64) float64 {
	return decimal.NewFromFloat(value).Round(creditsPlaces).InexactFloat64()
}

// WordCharacters keeps only letters, apostrophes and hyphens.
func WordCharacters(text string) string {
	return nonWordRunes.ReplaceAllString(text, "")
}
