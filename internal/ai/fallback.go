package ai

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/atinyakov/NoteKeeper/internal/models"
)

const (
	noRecordsAnswer = "You don't have any saved records yet."
	noMatchAnswer   = "I couldn't find anything related to your question among your %d records."
	maxListed       = 5
	minKeywordRunes = 3
)

var recencyWords = map[string]struct{}{"recent": {}, "latest": {}, "newest": {}, "last": {}}

// recencyPhrases are matched as substrings; CJK text has no word breaks.
var recencyPhrases = []string{"最近", "最新"}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "was": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "who": {}, "why": {}, "how": {}, "did": {}, "does": {},
	"have": {}, "has": {}, "had": {}, "about": {}, "with": {}, "from": {}, "that": {},
	"this": {}, "these": {}, "those": {}, "there": {}, "their": {}, "you": {}, "your": {},
	"can": {}, "could": {}, "would": {}, "should": {}, "any": {}, "all": {}, "note": {},
	"notes": {}, "record": {}, "records": {}, "tell": {}, "show": {}, "find": {}, "into": {},
}

// Fallback answers question from notes without a remote model.
// Strategies are tried in order: a direct title or text match, a request
// for the most recent note, then keyword overlap. The result depends only
// on its inputs.
func Fallback(question string, notes []models.Note) string {
	if len(notes) == 0 {
		return noRecordsAnswer
	}
	q := strings.ToLower(strings.TrimSpace(question))

	if hits := directMatches(q, notes); len(hits) > 0 {
		return listAnswer("Here is what I found in your records:", hits)
	}

	if mentionsRecency(q) {
		latest := notes[0]
		for _, n := range notes[1:] {
			if n.Timestamp > latest.Timestamp {
				latest = n
			}
		}
		return "Your most recent record:\n" + describe(latest)
	}

	if hits := keywordMatches(q, notes); len(hits) > 0 {
		return listAnswer("These records look related to your question:", hits)
	}

	return fmt.Sprintf(noMatchAnswer, len(notes))
}

func directMatches(q string, notes []models.Note) []models.Note {
	if q == "" {
		return nil
	}
	var out []models.Note
	for _, n := range notes {
		title := strings.ToLower(n.Title)
		switch {
		case strings.Contains(title, q), strings.Contains(strings.ToLower(n.Text), q):
			out = append(out, n)
		case utf8.RuneCountInString(title) >= minKeywordRunes && strings.Contains(q, title):
			out = append(out, n)
		}
	}
	return out
}

func mentionsRecency(q string) bool {
	for _, w := range words(q) {
		if _, ok := recencyWords[w]; ok {
			return true
		}
	}
	for _, p := range recencyPhrases {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}

func words(q string) []string {
	return strings.FieldsFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func keywords(q string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, f := range words(q) {
		if utf8.RuneCountInString(f) < minKeywordRunes {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

func keywordMatches(q string, notes []models.Note) []models.Note {
	terms := keywords(q)
	if len(terms) == 0 {
		return nil
	}
	var out []models.Note
	for _, n := range notes {
		haystack := strings.ToLower(n.Title + "\n" + n.Text + "\n" + strings.Join(n.Tags, "\n"))
		for _, w := range terms {
			if strings.Contains(haystack, w) {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

func listAnswer(header string, notes []models.Note) string {
	var b strings.Builder
	b.WriteString(header)
	for i, n := range notes {
		if i == maxListed {
			fmt.Fprintf(&b, "\n...and %d more.", len(notes)-maxListed)
			break
		}
		b.WriteString("\n- ")
		b.WriteString(describe(n))
	}
	return b.String()
}

func describe(n models.Note) string {
	title := n.Title
	if title == "" {
		title = "(untitled)"
	}
	when := time.UnixMilli(n.Timestamp).UTC().Format("2006-01-02 15:04")
	if n.Text == "" {
		return fmt.Sprintf("%s (%s)", title, when)
	}
	return fmt.Sprintf("%s (%s): %s", title, when, n.Text)
}

// FormatContext renders notes as the Title/Text/Time blocks sent to the model.
func FormatContext(notes []models.Note) string {
	var b strings.Builder
	for i, n := range notes {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Title: %s\nText: %s\nTime: %s", n.Title, n.Text,
			time.UnixMilli(n.Timestamp).UTC().Format(time.RFC3339))
		if len(n.Tags) > 0 {
			fmt.Fprintf(&b, "\nTags: %s", strings.Join(n.Tags, ", "))
		}
	}
	return b.String()
}
