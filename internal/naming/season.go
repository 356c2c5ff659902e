package naming

import (
	"fmt"
	"regexp"
	"strconv"
)

// seasonPatterns are tried in order against a season folder name. The bare
// digit run is a last resort and will also pick up unrelated numbers such as
// a year.
var seasonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)season\s?(\d+)`),
	regexp.MustCompile(`(?i)seizoen\s?(\d+)`),
	regexp.MustCompile(`S(\d+)`),
	regexp.MustCompile(`(\d+)`),
}

// ExtractSeason parses the season number from a season folder name such as
// "Season 2", "Seizoen3" or "S05". ok is false only when no pattern matches.
func ExtractSeason(folderName string) (season int, ok bool) {
	for _, re := range seasonPatterns {
		match := re.FindStringSubmatch(folderName)
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			// digit run too large for an int
			continue
		}
		return n, true
	}
	return 0, false
}

// SeasonLabel renders "<word> N" for announcements, or just word when the
// season is unknown or zero.
func SeasonLabel(word string, season int, ok bool) string {
	if !ok || season == 0 {
		return word
	}
	return fmt.Sprintf("%s %d", word, season)
}
