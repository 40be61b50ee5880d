package summarization

import (
	"strings"
	"testing"

	"github.com/voicescribe/backend/internal/summary"
)

func TestLanguageNameDefaultsToEnglish(t *testing.T) {
	for _, code := range []string{"", "auto", "xx", "AUTO"} {
		if got := LanguageName(code); got != "English" {
			t.Fatalf("LanguageName(%q) = %q, want English", code, got)
		}
	}
	if got := LanguageName("de"); got != "German" {
		t.Fatalf("LanguageName(de) = %q, want German", got)
	}
}

// TestBuildPromptMandatesContract checks the system prompt names every
// mandatory section and the placeholder rule verbatim.
func TestBuildPromptMandatesContract(t *testing.T) {
	system, user := BuildPrompt("we talked about the launch", "es")

	if !strings.Contains(system, "Spanish") {
		t.Fatalf("system prompt missing target language:\n%s", system)
	}
	for _, title := range summary.SectionTitles {
		if !strings.Contains(system, "## "+title) {
			t.Fatalf("system prompt missing section %q", title)
		}
	}
	if !strings.Contains(system, summary.PlaceholderLine) {
		t.Fatal("system prompt missing placeholder rule")
	}
	if !strings.Contains(system, "Never invent content") {
		t.Fatal("system prompt missing fabrication rule")
	}
	if !strings.Contains(user, "we talked about the launch") {
		t.Fatal("user prompt missing transcript")
	}
}
