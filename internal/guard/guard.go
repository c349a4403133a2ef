// Package guard sanitizes text coming from the speech channel and from
// barcode scans before it reaches the dialogue engine.
package guard

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxFreeTextLen   = 500
	MaxBarcodeLen    = 100
	SuspiciousMaxLen = 100
)

// Result is one of Clean, Suspicious or Rejected.
type Result interface {
	isResult()
}

// Clean is input that passed every check.
type Clean struct {
	Text string
}

// Suspicious is input that may still be processed, but only in its
// truncated or cleaned form and with an audit trail.
type Suspicious struct {
	Reason string
	Text   string
}

// Rejected is input that must not be processed at all.
type Rejected struct {
	Reason string
}

func (Clean) isResult()      {}
func (Suspicious) isResult() {}
func (Rejected) isResult()   {}

type pattern struct {
	re     *regexp.Regexp
	reason string
}

var suspiciousPatterns = []pattern{
	{regexp.MustCompile(`(?i)\b(ignore|disregard|forget)\b.{0,30}\b(previous|prior|above|all)\b.{0,20}\b(instructions?|rules|prompts?)\b`), "instruction override"},
	{regexp.MustCompile(`(?i)\b(ignora|dimentica)\b.{0,30}\b(istruzioni|regole)\b`), "instruction override"},
	{regexp.MustCompile(`(?i)\b(system prompt|you are now|sei ora|act as)\b`), "instruction override"},
	{regexp.MustCompile(`\$\{[^}]*\}`), "interpolation syntax"},
	{regexp.MustCompile(`\{\{.*?\}\}`), "template syntax"},
	{regexp.MustCompile(`(?i)<\s*script`), "script tag"},
	{regexp.MustCompile(`\.\.[/\\]`), "path traversal"},
	{regexp.MustCompile(`(?i)\[\s*action\s*:`), "directive injection"},
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	barcodeOK     = regexp.MustCompile(`^[A-Za-z0-9\-_.]+$`)
	barcodeStrip  = regexp.MustCompile(`[^A-Za-z0-9\-_.]`)
)

// SanitizeFreeText checks a dictated utterance.
func SanitizeFreeText(input string) Result {
	if utf8.RuneCountInString(input) > MaxFreeTextLen {
		return Rejected{Reason: "input too long"}
	}

	text := strings.Map(func(r rune) rune {
		if isInvisible(r) {
			return -1
		}
		return r
	}, input)
	text = strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	if text == "" {
		return Rejected{Reason: "empty input"}
	}

	for _, p := range suspiciousPatterns {
		if p.re.MatchString(text) {
			return Suspicious{Reason: p.reason, Text: truncate(text, SuspiciousMaxLen)}
		}
	}
	return Clean{Text: text}
}

// SanitizeBarcode checks a scanned code against the barcode charset.
// Disallowed characters are stripped and the result flagged.
func SanitizeBarcode(input string) Result {
	code := strings.TrimSpace(input)
	if code == "" {
		return Rejected{Reason: "empty barcode"}
	}
	if len(code) > MaxBarcodeLen {
		return Rejected{Reason: "barcode too long"}
	}
	if barcodeOK.MatchString(code) {
		return Clean{Text: code}
	}
	cleaned := barcodeStrip.ReplaceAllString(code, "")
	if cleaned == "" {
		return Rejected{Reason: "barcode has no valid characters"}
	}
	return Suspicious{Reason: "invalid barcode characters", Text: cleaned}
}

// isInvisible reports control and zero-width characters. Whitespace controls
// (tab, newline) are kept so they collapse into a single space.
func isInvisible(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff', '\u00ad':
		return true
	case '\t', '\n', '\r':
		return false
	}
	return unicode.IsControl(r)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
