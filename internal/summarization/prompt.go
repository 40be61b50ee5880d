package summarization

import (
	"fmt"
	"strings"

	"github.com/voicescribe/backend/internal/summary"
)

// summaryLanguages maps the user-selectable language codes to the name
// used in the prompt. "auto" and unknown codes fall back to English:
// the summary language is a fixed target, never inferred.
var summaryLanguages = map[string]string{
	"en": "English",
	"ur": "Urdu",
	"hi": "Hindi",
	"ar": "Arabic",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"pt": "Portuguese",
	"ru": "Russian",
	"it": "Italian",
	"tr": "Turkish",
}

const systemPromptFormat = `You are an expert meeting summarizer. Write the entire summary in %s.

Produce a markdown document with exactly these five sections, in this order, each under a "## " heading:

## Overview
## Key Topics Discussed
## Action Items
## Key Decisions
## Important Details & Notes

Rules:
- Never invent content that is not present in the transcript.
- Every section header must appear even when empty. When a section has no applicable content, emit the header followed by the single line "%s".
- Use bullet points inside sections; bold sparingly for key terms.`

// LanguageName resolves a user language preference to the prompt
// language, defaulting to English.
func LanguageName(code string) string {
	if name, ok := summaryLanguages[strings.ToLower(strings.TrimSpace(code))]; ok {
		return name
	}
	return "English"
}

// BuildPrompt returns the system and user prompts for one transcript.
func BuildPrompt(transcript, languageCode string) (system, user string) {
	system = fmt.Sprintf(systemPromptFormat, LanguageName(languageCode), summary.PlaceholderLine)
	user = "Summarize the following transcript:\n\n" + transcript
	return system, user
}
