package money

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const rupeeSymbol = "₹"

// FreeLabel is shown in place of a zero delivery price.
const FreeLabel = "Free"

var printer = message.NewPrinter(language.MustParse("en-IN"))

// Money pairs an amount with its ISO currency.
type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

// INR builds a rupee amount.
func INR(amount decimal.Decimal) Money {
	return Money{Amount: amount, Currency: currency.INR}
}

// Parse reads an amount and ISO code as returned by the remote API.
// An empty code defaults to INR.
func Parse(amount, code string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("amount[%s] is not valid: %w", amount, err)
	}
	if code == "" {
		return INR(d), nil
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return Money{}, fmt.Errorf("currency[%s] is not valid: %w", code, err)
	}
	return Money{Amount: d, Currency: unit}, nil
}

// FormatINR renders an amount with en-IN grouping and no trailing zero
// fraction digits: 1500 -> "₹1,500", 1500.50 -> "₹1,500.5".
func FormatINR(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	return sign + rupeeSymbol + printer.Sprint(number.Decimal(rounded.InexactFloat64(), number.MaxFractionDigits(2)))
}

// FormatDeliveryPrice is FormatINR except that zero renders as "Free".
func FormatDeliveryPrice(amount decimal.Decimal) string {
	if amount.IsZero() {
		return FreeLabel
	}
	return FormatINR(amount)
}

// ClampZero returns max(amount, 0).
func ClampZero(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}
