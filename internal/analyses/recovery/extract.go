package recovery

import (
	"regexp"
	"strings"
)

var (
	fencedBlock = regexp.MustCompile("(?ms)^[ \\t]*```[\\w-]*[ \\t]*\\r?\\n(.*?)^[ \\t]*```")
	scoreAnchor = regexp.MustCompile(`\{\s*"score"\s*:`)
)

const keyedAnchor = `"missingDocuments"`

// fenced returns the contents of the first fenced code block.
func fenced(text string) (string, bool) {
	m := fencedBlock.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	body := strings.TrimSpace(m[1])
	return body, body != ""
}

// anchoredRegion returns the object that opens with a "score" key, up to its
// matching close brace, or to the end of text when it never closes.
func anchoredRegion(text string) (string, bool) {
	loc := scoreAnchor.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return regionFrom(text, loc[0]), true
}

// keyedRegion returns the nearest object enclosing the first
// "missingDocuments" key.
func keyedRegion(text string) (string, bool) {
	anchor := strings.Index(text, keyedAnchor)
	if anchor < 0 {
		return "", false
	}
	for open := strings.LastIndexByte(text[:anchor], '{'); open >= 0; open = strings.LastIndexByte(text[:open], '{') {
		end := matchBrace(text, open)
		if end < 0 || end > anchor {
			return regionFrom(text, open), true
		}
	}
	return "", false
}

func regionFrom(text string, open int) string {
	if end := matchBrace(text, open); end >= 0 {
		return text[open : end+1]
	}
	return text[open:]
}
