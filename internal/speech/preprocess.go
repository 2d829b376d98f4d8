package speech

import (
	"regexp"
	"strings"
)

// ---------------------------------------------------------------------------
// TTS text preprocessing. LLM output is full of markdown, roleplay action
// markers and emoji that sound terrible when read aloud; every cascade
// attempt gets the cleaned form. Order matters: code blocks before inline
// code, images before links, bold before italics.
// ---------------------------------------------------------------------------

var (
	reCodeBlock  = regexp.MustCompile("```[\\s\\S]*?```")
	reInlineCode = regexp.MustCompile("`[^`]+`")
	reHeader     = regexp.MustCompile(`(?m)^#{1,6}\s+`)

	reBoldStars      = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	reBoldUnderscore = regexp.MustCompile(`__([^_]+)__`)

	// Action markers contain spaces (*waves excitedly*); single-word
	// *emphasis* keeps its text.
	reActionStars = regexp.MustCompile(`\*([^*]*\s[^*]*)\*`)
	reItalicStars = regexp.MustCompile(`\*([^*]+)\*`)
	// No lookarounds in RE2: anchor on a non-underscore (or edge) either side.
	reItalicUnderscore = regexp.MustCompile(`(^|[^_])_([^_\s][^_]*)_($|[^_])`)

	reImage     = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	reImageBare = regexp.MustCompile(`!\[[^\]]*\]`)
	reLink      = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)

	reBullet     = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	reNumberList = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)

	reURL      = regexp.MustCompile(`https?://\S+`)
	reWWW      = regexp.MustCompile(`www\.\S+`)
	reFilePath = regexp.MustCompile(`[/\\][\w./\\-]+\.\w+`)

	reParenAction = regexp.MustCompile(`\([^)]*\)`)

	reEmoji = regexp.MustCompile(`[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}\x{1F1E0}-\x{1F1FF}\x{2702}-\x{27B0}\x{24C2}-\x{1F251}]+`)

	rePunctRun   = regexp.MustCompile(`[!?.]{4,}`)
	reHashtag    = regexp.MustCompile(`#\w+`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

var smartReplacer = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
	"—", "-", "–", "-",
	"…", "...",
)

// CleanForTTS strips markdown formatting, code, action markers, URLs, emoji
// and excess punctuation from LLM output so it reads naturally when spoken.
func CleanForTTS(text string) string {
	if text == "" {
		return ""
	}

	text = reCodeBlock.ReplaceAllString(text, "")
	text = reInlineCode.ReplaceAllString(text, "")
	text = reHeader.ReplaceAllString(text, "")

	text = reBoldStars.ReplaceAllString(text, "$1")
	text = reBoldUnderscore.ReplaceAllString(text, "$1")

	text = reActionStars.ReplaceAllString(text, "")
	text = reItalicStars.ReplaceAllString(text, "$1")
	text = reItalicUnderscore.ReplaceAllString(text, "$1$2$3")

	text = reImage.ReplaceAllString(text, "")
	text = reImageBare.ReplaceAllString(text, "")
	text = reLink.ReplaceAllString(text, "$1")

	text = reBullet.ReplaceAllString(text, "")
	text = reNumberList.ReplaceAllString(text, "")

	text = reURL.ReplaceAllString(text, "")
	text = reWWW.ReplaceAllString(text, "")
	text = reFilePath.ReplaceAllString(text, "")

	text = reParenAction.ReplaceAllString(text, "")

	text = smartReplacer.Replace(text)
	text = reEmoji.ReplaceAllString(text, "")

	// Cap runaway punctuation runs ("!!!!!!" reads as screaming) at three
	// of the final mark.
	text = rePunctRun.ReplaceAllStringFunc(text, func(run string) string {
		last := run[len(run)-1:]
		return strings.Repeat(last, 3)
	})
	text = reHashtag.ReplaceAllString(text, "")

	text = reWhitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
