// Package money holds the small amount-handling helpers shared by the
// conversion pipeline and the formatting tool.
package money

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Round2 rounds to two decimal places, half away from zero. All monetary
// outputs of the conversion pipeline pass through here.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var printer = message.NewPrinter(language.English)

// Format renders a monetary value with its currency symbol, e.g. "$ 1,234.50".
// Unknown or malformed codes fall back to "CODE 1234.50" rather than failing:
// the formatting tool must always produce something the model can echo.
func Format(value float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%s %.2f", code, value)
	}
	return printer.Sprintf("%v", currency.NarrowSymbol(unit.Amount(value)))
}
