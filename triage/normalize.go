package triage

import "strings"

// MaxInputBytes bounds the raw text handed to Classify; longer input is
// truncated before anything else happens.
const MaxInputBytes = 160

func truncateInput(text string) string {
	if len(text) <= MaxInputBytes {
		return text
	}
	return text[:MaxInputBytes]
}

// normalize lowercases ASCII letters and digits, collapses every run of
// other characters to a single space, and strips leading/trailing spaces.
func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	prevSpace := false
	for _, r := range text {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r - 'A' + 'a')
			prevSpace = false
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func hasSubstring(norm string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(norm, p) {
			return true
		}
	}
	return false
}

func firstSubstring(norm string, candidates []string) (string, bool) {
	for _, c := range candidates {
		if strings.Contains(norm, c) {
			return c, true
		}
	}
	return "", false
}

func hasToken(norm string, words []string) bool {
	for _, tok := range strings.Fields(norm) {
		for _, w := range words {
			if tok == w {
				return true
			}
		}
	}
	return false
}

// firstDigitRun returns the first 1- or 2-digit run in norm, or 0 if none.
func firstDigitRun(norm string) int {
	runes := []rune(norm)
	for i := 0; i < len(runes); i++ {
		if runes[i] < '0' || runes[i] > '9' {
			continue
		}
		j := i + 1
		for j < len(runes) && j < i+2 && runes[j] >= '0' && runes[j] <= '9' {
			j++
		}
		n := 0
		for _, d := range runes[i:j] {
			n = n*10 + int(d-'0')
		}
		return n
	}
	return 0
}
