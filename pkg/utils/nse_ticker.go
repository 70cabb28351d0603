package utils

import (
	"strings"
)

// Common NSE ticker aliases and normalizations. Only names that point at a
// single listing belong here.
var tickerAliases = map[string]string{
	"RIL":           "RELIANCE",
	"INFOSYS":       "INFY",
	"HDFC BANK":     "HDFCBANK",
	"ICICI BANK":    "ICICIBANK",
	"AIRTEL":        "BHARTIARTL",
	"L&T":           "LT",
	"TATA MOTORS":   "TATAMOTORS",
	"TATA STEEL":    "TATASTEEL",
	"HCL TECH":      "HCLTECH",
	"KOTAK BANK":    "KOTAKBANK",
	"AXIS BANK":     "AXISBANK",
	"SUN PHARMA":    "SUNPHARMA",
	"ASIAN PAINTS":  "ASIANPAINT",
	"NESTLE INDIA":  "NESTLEIND",
	"ULTRATECH":     "ULTRACEMCO",
	"TECH MAHINDRA": "TECHM",
	"HUL":           "HINDUNILVR",
	"COAL INDIA":    "COALINDIA",
	"BAJAJ AUTO":    "BAJAJ-AUTO",
	"HERO MOTOCORP": "HEROMOTOCO",
}

// nseSymbols are the NSE listings a bare symbol resolves to. Any other bare
// symbol is passed through as typed.
var nseSymbols = map[string]bool{
	"RELIANCE": true, "TCS": true, "HDFCBANK": true, "INFY": true, "ICICIBANK": true,
	"HINDUNILVR": true, "SBIN": true, "BHARTIARTL": true, "BAJFINANCE": true, "KOTAKBANK": true,
	"LT": true, "HCLTECH": true, "AXISBANK": true, "MARUTI": true, "ITC": true,
	"ASIANPAINT": true, "WIPRO": true, "DMART": true, "ULTRACEMCO": true, "NESTLEIND": true,
	"BAJAJFINSV": true, "M&M": true, "POWERGRID": true, "TITAN": true, "SUNPHARMA": true,
	"NTPC": true, "TATAMOTORS": true, "ONGC": true, "ADANIENT": true, "JSWSTEEL": true,
	"TATASTEEL": true, "COALINDIA": true, "INDUSINDBK": true, "HINDALCO": true, "GRASIM": true,
	"ADANIPORTS": true, "CIPLA": true, "EICHERMOT": true, "TECHM": true, "BPCL": true,
	"BRITANNIA": true, "DIVISLAB": true, "HEROMOTOCO": true, "DRREDDY": true, "APOLLOHOSP": true,
	"UPL": true, "BAJAJ-AUTO": true, "SHREECEM": true, "INDIGO": true, "TATACONSUM": true,
}

// Exchange suffixes that identify an Indian listing.
const (
	SuffixNSE = ".NS"
	SuffixBSE = ".BO"
)

// exchangeSuffixes are the Yahoo Finance market suffixes. A dot followed by
// anything else is part of the symbol, as in the share class of "BRK.B".
var exchangeSuffixes = map[string]bool{
	SuffixNSE: true, SuffixBSE: true,
	".L": true, ".IL": true, ".TO": true, ".V": true, ".NE": true, ".AX": true, ".NZ": true,
	".HK": true, ".T": true, ".KS": true, ".KQ": true, ".TW": true, ".TWO": true,
	".SS": true, ".SZ": true, ".SI": true, ".JK": true, ".KL": true, ".BK": true,
	".DE": true, ".F": true, ".PA": true, ".AS": true, ".BR": true, ".MI": true,
	".MC": true, ".LS": true, ".SW": true, ".ST": true, ".OL": true, ".CO": true,
	".HE": true, ".IR": true, ".VI": true, ".WA": true, ".SA": true, ".MX": true,
	".BA": true, ".JO": true, ".TA": true, ".SR": true, ".QA": true,
}

// NormalizeTicker normalizes a user-input ticker: uppercased, trimmed and
// "$"-stripped. Indian aliases are resolved, and ".NS" is appended only to a
// bare symbol known as an NSE listing. Everything else, such as "AAPL",
// "BRK-B" or "VOD.L", is returned as typed.
func NormalizeTicker(ticker string) string {
	ticker = strings.TrimSpace(strings.ToUpper(ticker))

	// Remove $ prefix if present (common in chat)
	ticker = strings.TrimPrefix(ticker, "$")
	if ticker == "" {
		return ""
	}

	base, suffix := SplitExchange(ticker)
	if suffix != "" && suffix != SuffixNSE && suffix != SuffixBSE {
		return ticker
	}
	if canonical, ok := tickerAliases[base]; ok {
		base = canonical
		if suffix == "" {
			suffix = SuffixNSE
		}
	}
	if suffix == "" && nseSymbols[base] {
		suffix = SuffixNSE
	}
	return base + suffix
}

// IsNSESymbol reports whether a bare symbol is a known NSE listing.
func IsNSESymbol(symbol string) bool {
	return nseSymbols[strings.ToUpper(strings.TrimSpace(symbol))]
}

// SplitExchange splits "RELIANCE.NS" into ("RELIANCE", ".NS"). A ticker
// without a recognised market suffix returns an empty suffix.
func SplitExchange(ticker string) (base, suffix string) {
	i := strings.LastIndex(ticker, ".")
	if i <= 0 || i == len(ticker)-1 {
		return ticker, ""
	}
	if !exchangeSuffixes[strings.ToUpper(ticker[i:])] {
		return ticker, ""
	}
	return ticker[:i], ticker[i:]
}

// ToYFinanceTicker converts a ticker to Yahoo Finance format.
func ToYFinanceTicker(ticker string) string {
	return NormalizeTicker(ticker)
}

// FromYFinanceTicker strips the .NS or .BO suffix to get the exchange symbol.
func FromYFinanceTicker(yfTicker string) string {
	yfTicker = strings.TrimSuffix(yfTicker, SuffixNSE)
	yfTicker = strings.TrimSuffix(yfTicker, SuffixBSE)
	return yfTicker
}

// IsIndianListing reports whether the ticker resolves to an NSE or BSE listing.
func IsIndianListing(ticker string) bool {
	_, suffix := SplitExchange(NormalizeTicker(ticker))
	return suffix == SuffixNSE || suffix == SuffixBSE
}

// NormalizeTickers normalizes a list, dropping blanks and duplicates while
// keeping first-seen order.
func NormalizeTickers(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		n := NormalizeTicker(t)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// SplitTickerList parses a comma or whitespace separated ticker list.
func SplitTickerList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == ';'
	})
}
