package utils

import "strings"

// NormalizeTicker canonicalizes a ticker symbol: trimmed and uppercased.
// Lookups against the data provider are case-insensitive, and the canonical
// form is what gets echoed back in result payloads.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// SymbolGuesses returns heuristic ticker candidates for a company name,
// in the order they should be tried: first four letters, first three
// letters, and first four letters with spaces removed. Duplicates are
// dropped. This is best-effort name→symbol resolution; a guess is only
// meaningful once validated against the data provider.
func SymbolGuesses(company string) []string {
	name := strings.ToUpper(strings.TrimSpace(company))
	if name == "" {
		return nil
	}

	candidates := []string{
		truncate(name, 4),
		truncate(name, 3),
		truncate(strings.ReplaceAll(name, " ", ""), 4),
	}

	seen := make(map[string]bool, len(candidates))
	guesses := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		guesses = append(guesses, c)
	}
	return guesses
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
