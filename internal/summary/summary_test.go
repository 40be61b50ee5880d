package summary

import (
	"strings"
	"testing"
)

// TestPlaceholderContainsEveryHeader verifies the empty document still
// carries all five mandatory sections with placeholder lines.
func TestPlaceholderContainsEveryHeader(t *testing.T) {
	doc := Placeholder()
	if !HasAllSections(doc) {
		t.Fatalf("placeholder document missing sections:\n%s", doc)
	}
	for _, sec := range Parse(doc) {
		if len(sec.Lines) != 1 || sec.Lines[0] != PlaceholderLine {
			t.Fatalf("section %q lines = %v, want single placeholder", sec.Title, sec.Lines)
		}
	}
}

// TestParseOrder verifies sections come back in document order with
// their content lines attached.
func TestParseOrder(t *testing.T) {
	doc := "## Overview\n\nA short meeting.\n\n## Key Topics Discussed\n\n- Budget\n- **Hiring** plans\n"
	sections := Parse(doc)
	if len(sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(sections))
	}
	if sections[0].Title != "Overview" || sections[1].Title != "Key Topics Discussed" {
		t.Fatalf("unexpected titles: %q, %q", sections[0].Title, sections[1].Title)
	}
	if sections[1].Lines[1] != "- **Hiring** plans" {
		t.Fatalf("emphasis should survive parsing, got %q", sections[1].Lines[1])
	}
}

func TestParseEmptyDocument(t *testing.T) {
	if got := Parse(""); got != nil {
		t.Fatalf("Parse(\"\") = %v, want nil", got)
	}
	if got := Parse("   \n\n "); got != nil {
		t.Fatalf("Parse(whitespace) = %v, want nil", got)
	}
}

// TestParseHeadingless falls back to a single Overview section from the
// first paragraph, capped at 300 characters.
func TestParseHeadingless(t *testing.T) {
	sections := Parse("just a flat blob of text\nover two lines\n\nsecond paragraph")
	if len(sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(sections))
	}
	if sections[0].Title != "Overview" {
		t.Fatalf("fallback title = %q, want Overview", sections[0].Title)
	}
	if sections[0].Lines[0] != "just a flat blob of text over two lines" {
		t.Fatalf("fallback text = %q", sections[0].Lines[0])
	}

	long := strings.Repeat("x", 500)
	sections = Parse(long)
	if got := len(sections[0].Lines[0]); got != 300 {
		t.Fatalf("fallback length = %d, want 300", got)
	}
}

func TestPlainLine(t *testing.T) {
	cases := map[string]string{
		"- [ ] Ship the draft":     "Ship the draft",
		"- **Decision:** ship now": "Decision: ship now",
		"* emphasis is *fine*":     "emphasis is fine",
		"plain text":               "plain text",
	}
	for in, want := range cases {
		if got := PlainLine(in); got != want {
			t.Fatalf("PlainLine(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWithAttributionIdempotent(t *testing.T) {
	doc := "## Overview\n\nShort recap.\n"
	once := WithAttribution(doc)
	if !strings.Contains(once, "_Summary generated automatically") {
		t.Fatalf("attribution missing: %q", once)
	}
	if twice := WithAttribution(once); twice != once {
		t.Fatalf("attribution applied twice:\n%q\nvs\n%q", once, twice)
	}
	sections := Parse(once)
	last := sections[len(sections)-1]
	for _, line := range last.Lines {
		if line == "---" {
			t.Fatal("horizontal rule should not survive parsing")
		}
	}
}
