package currency

import (
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	xcurrency "golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Format renders money with the locale's digit grouping and the currency's narrow symbol,
// e.g. "$1,234.50" for en-US or "€1.234,50" for de-DE.
func Format(m valueobject.Money, locale string) string {
	tag := parseLocale(locale)
	p := message.NewPrinter(tag)
	exp := int(m.Currency().MinorUnitExponent())
	amount, _ := m.RoundToMinor().Amount().Float64()
	digits := p.Sprint(number.Decimal(amount,
		number.MinFractionDigits(exp),
		number.MaxFractionDigits(exp)))
	return Symbol(m.Currency(), locale) + digits
}

// Symbol returns the narrow display symbol of c, falling back to the ISO code
func Symbol(c valueobject.Currency, locale string) string {
	unit, err := xcurrency.ParseISO(c.String())
	if err != nil {
		return c.String()
	}
	return message.NewPrinter(parseLocale(locale)).Sprint(xcurrency.NarrowSymbol(unit))
}

func parseLocale(locale string) language.Tag {
	tag, err := language.Parse(locale)
	if err != nil {
		return language.AmericanEnglish
	}
	return tag
}
