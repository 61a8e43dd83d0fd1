package render

import "strings"

// Theme selects the density of the invoice layout.
type Theme string

const (
	ThemeCompact  Theme = "Compact"
	ThemeStandard Theme = "Standard"
	ThemeDetail   Theme = "Detail"
)

// ParseTheme maps a settings value to a Theme. Unknown values use ThemeStandard.
func ParseTheme(s string) Theme {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "compact":
		return ThemeCompact
	case "detail":
		return ThemeDetail
	}
	return ThemeStandard
}

type styles struct {
	FontSize      string
	SmallFontSize string
	H1Size        string
	H2Size        string
	TableFontSize string
	TablePadding  string
	LegalFontSize string
	Padding       string
}

func (t Theme) styles() styles {
	switch t {
	case ThemeCompact:
		return styles{"10px", "8px", "20px", "12px", "9px", "6px 8px", "7px", "15mm"}
	case ThemeDetail:
		return styles{"12px", "11px", "28px", "16px", "11px", "12px 15px", "10px", "25mm"}
	}
	return styles{"11px", "10px", "24px", "14px", "10px", "10px 12px", "9px", "20mm"}
}
