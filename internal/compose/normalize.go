package compose

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	rightSingleQuote = "’"
	quoteChars       = "\"'“”‘’"
	terminalMarks    = ".!?"
)

var (
	dashPattern   = regexp.MustCompile(`\s*[\x{2014}\x{2013}]\s*`)
	messageLabel  = regexp.MustCompile(`(?im)^\s*\**\s*message\s*\**\s*:\s*\**\s*`)
	headlineLabel = regexp.MustCompile(`(?im)^\s*\**\s*headline\s*\**\s*:`)
)

// NormalizeOptions toggles the optional normalization steps.
type NormalizeOptions struct {
	Structured    bool
	RewriteDashes bool
}

// Normalize cleans raw model output: the Message section is extracted in
// structured mode, one layer of surrounding quotes is removed, dashes are
// optionally rewritten and straight apostrophes become typographic ones.
func Normalize(raw string, opts NormalizeOptions) string {
	text := strings.TrimSpace(raw)

	if opts.Structured {
		text = extractMessage(text)
	}

	text = stripQuotes(text)

	if opts.RewriteDashes {
		text = dashPattern.ReplaceAllString(text, ", ")
	}

	text = strings.ReplaceAll(text, "'", rightSingleQuote)
	return strings.TrimSpace(text)
}

// extractMessage returns the text after the "Message:" label up to the next
// headline label. Text without the label is returned unchanged.
func extractMessage(text string) string {
	loc := messageLabel.FindStringIndex(text)
	if loc == nil {
		return text
	}
	rest := text[loc[1]:]
	if h := headlineLabel.FindStringIndex(rest); h != nil {
		rest = rest[:h[0]]
	}
	return strings.TrimSpace(rest)
}

func stripQuotes(text string) string {
	if r, size := utf8.DecodeRuneInString(text); size > 0 && strings.ContainsRune(quoteChars, r) {
		text = text[size:]
	}
	if r, size := utf8.DecodeLastRuneInString(text); size > 0 && strings.ContainsRune(quoteChars, r) {
		text = text[:len(text)-size]
	}
	return strings.TrimSpace(text)
}

// AppendTalkingPoint adds point as a second sentence, terminating the first
// sentence when needed.
func AppendTalkingPoint(text, point string) string {
	text = strings.TrimSpace(text)
	point = strings.TrimSpace(point)
	if point == "" {
		return text
	}
	if text == "" {
		return point
	}
	if r, _ := utf8.DecodeLastRuneInString(text); !strings.ContainsRune(terminalMarks, r) {
		text += "."
	}
	return text + " " + point
}
