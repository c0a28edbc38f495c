// Package message implements the locale-keyed message catalog (C11): thin
// lookups over the catalog's message table with default-locale fallback.
package message

import "pretriage/internal/catalog"

// Text returns the message for key in locale, falling back to the
// catalog's default locale when the key is absent for locale.
func Text(key, locale string, cat *catalog.Catalog) string {
	m, ok := cat.Messages[locale]
	if ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return cat.Messages[catalog.DefaultLocale][key]
}

// Disclaimer returns the locale's standing medical disclaimer, shown on
// every question/result/emergency envelope.
func Disclaimer(locale string, cat *catalog.Catalog) string {
	return Text("disclaimer", locale, cat)
}
