package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.Spanish)

// monedas sin decimales en documentos
var zeroDecimals = map[string]bool{"CLP": true, "JPY": true, "COP": true}

var symbols = map[string]string{
	"CLP": "$",
	"COP": "$",
	"USD": "US$",
	"EUR": "€",
}

// Format devuelve el monto con separadores de miles en español y el símbolo de la moneda.
// CLP se imprime sin decimales (1234567 -> "$1.234.567").
func Format(amount decimal.Decimal, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	sym, ok := symbols[currency]
	if !ok {
		sym = currency + " "
	}

	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	if zeroDecimals[currency] {
		return sign + sym + printer.Sprintf("%d", amount.Round(0).IntPart())
	}
	f, _ := amount.Round(2).Float64()
	return sign + sym + printer.Sprint(number.Decimal(f, number.Scale(2)))
}
