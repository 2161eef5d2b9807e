package service

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatAmount renders an IDR amount with Indonesian digit grouping, e.g. 1.000.000.
func FormatAmount(v int64) string {
	return message.NewPrinter(language.Indonesian).Sprintf("%d", v)
}

// FormatRupiah renders an amount with the currency prefix used in reports.
func FormatRupiah(v int64) string {
	return "Rp " + FormatAmount(v)
}
