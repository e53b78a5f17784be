package verdict

import (
	"net/url"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/scicheckagent/scicheck/internal/errs"
	"github.com/scicheckagent/scicheck/internal/model"
)

const (
	maxJustification = 1000
	maxSources       = 2
	maxKeywords      = 5
	minKeywordLen    = 4
)

// Fields is the raw field set pulled out of a model response before
// validation.
type Fields struct {
	Verdict       string
	Justification string
	Sources       []string
	Keywords      []string
}

// ParseResponse extracts the labelled fields from a verdict completion and
// validates them against the mode's vocabulary. Models wrap the block in code
// fences, shuffle label casing and append trailing chatter often enough that
// strict decoding is useless; the parser scans line by line instead and takes
// the first occurrence of each label.
func ParseResponse(mode model.Mode, raw string) (*Fields, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var p Fields
	var lastField *string

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			lastField = nil
			continue
		}
		switch label, rest := splitLabel(line); label {
		case "verdict":
			if p.Verdict == "" {
				p.Verdict = strings.ToUpper(strings.Trim(rest, `"*. `))
			}
			lastField = nil
		case "justification":
			if p.Justification == "" {
				p.Justification = rest
				lastField = &p.Justification
			}
		case "sources":
			if p.Sources == nil {
				p.Sources = parseSources(rest)
			}
			lastField = nil
		case "keywords":
			if p.Keywords == nil {
				p.Keywords = parseKeywords(rest)
			}
			lastField = nil
		default:
			// Unlabelled line: continuation of a multi-line justification.
			if lastField != nil {
				*lastField += " " + line
			}
		}
	}

	if p.Verdict == "" {
		return nil, &errs.ParseError{Field: "verdict", Reason: "label not found in response"}
	}
	if !vocabularyContains(mode, p.Verdict) {
		return nil, &errs.ParseError{Field: "verdict", Reason: "value " + p.Verdict + " not in vocabulary for mode " + string(mode)}
	}
	if p.Justification == "" {
		return nil, &errs.ParseError{Field: "justification", Reason: "label not found in response"}
	}
	p.Justification = truncateOnRune(p.Justification, maxJustification)
	return &p, nil
}

// truncateOnRune caps s at max bytes without splitting a multi-byte rune.
func truncateOnRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// splitLabel returns the lowercase label before the first colon and the text
// after it, or "" when the line is not a labelled field.
func splitLabel(line string) (string, string) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", line
	}
	label := strings.ToLower(strings.Trim(line[:idx], "*# "))
	switch label {
	case "verdict", "justification", "sources", "keywords":
		return label, strings.TrimSpace(line[idx+1:])
	}
	return "", line
}

func parseSources(rest string) []string {
	if strings.EqualFold(strings.TrimSpace(rest), "none") {
		return []string{}
	}
	out := []string{}
	for _, part := range strings.Split(rest, ",") {
		part = strings.Trim(part, `"<> `)
		u, err := url.Parse(part)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			continue
		}
		out = append(out, part)
		if len(out) == maxSources {
			break
		}
	}
	return out
}

func parseKeywords(rest string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, part := range strings.Split(rest, ",") {
		kw := strings.ToLower(strings.Trim(part, `"*. `))
		if len(kw) < minKeywordLen || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

func vocabularyContains(mode model.Mode, v string) bool {
	for _, allowed := range mode.Vocabulary() {
		if string(allowed) == v {
			return true
		}
	}
	return false
}

// FallbackKeywords derives search keywords directly from the claim text when
// the model supplied none: the longest alphabetic words of useful length, or
// a truncated copy of the claim if even that fails.
func FallbackKeywords(claim string) []string {
	var words []string
	seen := make(map[string]bool)
	for _, w := range strings.Fields(claim) {
		w = strings.ToLower(strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) }))
		if len(w) < minKeywordLen || !isAlphabetic(w) || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	sort.SliceStable(words, func(i, j int) bool { return len(words[i]) > len(words[j]) })
	if len(words) > maxKeywords {
		words = words[:maxKeywords]
	}
	if len(words) == 0 {
		text := strings.TrimSpace(claim)
		if len(text) > 100 {
			text = text[:100]
		}
		if text != "" {
			words = []string{text}
		}
	}
	return words
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
