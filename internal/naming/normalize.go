package naming

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// languageCodes are bare two-letter language tags found in release names.
var languageCodes = []string{
	"en", "jp", "fr", "de", "it", "es", "zh", "ru", "ko",
	"pt", "th", "vi", "sv", "da", "no", "fi", "nl", "tr",
}

// Release tags removed in the final cleanup stage. Separators inside a tag
// ("WEB-DL", "YTS.MX", "dual audio") match any run of space, dot, underscore
// or hyphen.
var (
	resolutionTags = []string{"720p", "1080p", "2160p"}
	sourceTags     = []string{
		"HDR", "WEB-DL", "BluRay", "BRRip", "DVDRip", "WEBRip", "WEB-Rip", "HDRip",
		"REMUX", "PROPER", "REPACK", "PAL", "NTSC",
	}
	codecTags    = []string{"x264", "x265", "HEVC", "H264", "HEIC"}
	audioTags    = []string{"AAC", "DTS", "DTS-HD", "AC3", "5.1", "6ch", "7.1", "10bit"}
	sceneTags    = []string{"YTS.AG", "YTS.MX", "YIFY", "RARBG", "PSA"}
	subtitleTags = []string{
		"SRT", "sub", "subs", "internal", "dub", "dubbing", "dual audio", "multi audio",
	}
)

// wordEnd matches the end of a word. RE2's \b only knows ASCII word
// characters, so it would split "Brüno" after "Br".
const wordEnd = `(?:[^\p{L}\p{M}\p{N}_]|$)`

var (
	extensionPattern     = regexp.MustCompile(`\.[^.\s\[\]()]+$`)
	bracketGroupPattern  = regexp.MustCompile(`\[.*?\]`)
	parenGroupPattern    = regexp.MustCompile(`\(.*?\)`)
	separatorRunPattern  = regexp.MustCompile(`[._-]+`)
	whitespaceRunPattern = regexp.MustCompile(`\s+`)

	// A language code takes an optional ".xx" region subtag with it.
	languageWords = newWordRule(`(?i)^(?:((?:` + strings.Join(languageCodes, "|") + `)\.[a-z]{2})|(` +
		strings.Join(languageCodes, "|") + `)` + wordEnd + `)`)
	// Episode markers only need a word start: "S01E02" loses "S01".
	episodeMarkerWords = newWordRule(`(?i)^((?:s|season|episode|ep)\s?\d+)`)
	yearTokenWords     = newWordRule(`^(\d{4})` + wordEnd)
	releaseTagWords    = newWordRule(compileTagPattern(
		resolutionTags, sourceTags, codecTags, audioTags, sceneTags, subtitleTags,
	))
)

// wordRule removes tokens that start on a word boundary. The pattern is
// anchored at the candidate start and the removed text ends where its first
// participating capture group ends; anything matched after that group (the
// word end) stays in place.
type wordRule struct {
	re *regexp.Regexp
}

func newWordRule(pattern string) wordRule {
	return wordRule{re: regexp.MustCompile(pattern)}
}

// match reports the length of the token starting at s[0], or 0.
func (w wordRule) match(s string) int {
	loc := w.re.FindStringSubmatchIndex(s)
	if loc == nil {
		return 0
	}
	for g := 2; g+1 < len(loc); g += 2 {
		if loc[g] == 0 && loc[g+1] > 0 {
			return loc[g+1]
		}
	}
	return 0
}

// remove drops every token in s. Word starts are judged against the
// original text, so "ep1ep2" loses "ep1" only.
func (w wordRule) remove(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if wordStartAt(s, i) {
			if n := w.match(s[i:]); n > 0 {
				i += n
				continue
			}
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		b.WriteString(s[i : i+size])
		i += size
	}
	return b.String()
}

func wordStartAt(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

// isWordRune treats combining marks as word characters so a decomposed
// "é" does not end its word.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.M, r)
}

// compileTagPattern builds one case-insensitive whole-word alternation from the
// tag tables for a wordRule. Longer tags come first so "DTS-HD" wins over "DTS";
// a longer tag that fails the word end falls back to a shorter one.
func compileTagPattern(groups ...[]string) string {
	var tags []string
	seen := make(map[string]bool)
	for _, group := range groups {
		for _, tag := range group {
			key := strings.ToLower(separatorRunPattern.ReplaceAllString(tag, " "))
			if seen[key] {
				continue
			}
			seen[key] = true
			tags = append(tags, tag)
		}
	}

	sort.SliceStable(tags, func(i, j int) bool {
		return len(tags[i]) > len(tags[j])
	})

	alternatives := make([]string, 0, len(tags))
	for _, tag := range tags {
		parts := strings.FieldsFunc(tag, func(r rune) bool {
			return r == ' ' || r == '.' || r == '_' || r == '-'
		})
		for i, part := range parts {
			parts[i] = regexp.QuoteMeta(part)
		}
		alternatives = append(alternatives, strings.Join(parts, `[\s._-]+`))
	}

	return `(?i)^(` + strings.Join(alternatives, "|") + `)` + wordEnd
}

// Normalize turns a raw file or folder name into the title used for searching.
//
//	"Show.Name.S01.1080p.BluRay.x264-GROUP" -> "Show Name"
//	"Movie Title (2020) [YTS.MX]"           -> "Movie Title"
//
// The stages run in a fixed order and none is revisited once a later stage
// has run. The result is empty when the name is nothing but noise.
func Normalize(raw string) string {
	s := stripExtension(raw)
	s = languageWords.remove(s)
	s = episodeMarkerWords.remove(s)
	s = yearTokenWords.remove(s)
	s = bracketGroupPattern.ReplaceAllLiteralString(s, "")
	s = parenGroupPattern.ReplaceAllLiteralString(s, "")
	s = separatorRunPattern.ReplaceAllLiteralString(s, " ")
	s = releaseTagWords.remove(s)
	return collapseSpaces(s)
}

// stripExtension drops a trailing ".ext". A suffix containing whitespace or
// brackets is part of the name, not an extension, and dot-files keep their name.
func stripExtension(name string) string {
	loc := extensionPattern.FindStringIndex(name)
	if loc == nil {
		return name
	}
	if strings.Trim(name[:loc[0]], ".") == "" {
		return name
	}
	return name[:loc[0]]
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRunPattern.ReplaceAllString(s, " "))
}
