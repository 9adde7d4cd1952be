package domain

import "fmt"

// Amount converts integer cents to a decimal currency amount.
func Amount(cents int64) float64 {
	return float64(cents) / 100
}

// FormatAmount renders cents as a fixed two-decimal string, e.g. 4500 -> "45.00".
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
