package reconcile

import (
	"regexp"
	"strconv"
	"strings"
)

type extracted struct {
	number int
	text   string
}

// Pattern names reported for diagnostics, strictest first.
const (
	patternMarkedBlocks  = "marked-blocks"
	patternBareBlocks    = "bare-blocks"
	patternNumberedLines = "numbered-lines"
)

var (
	blockHeaderRE   = regexp.MustCompile(`(?m)^#(\d+)[ \t]*$`)
	markedBlockRE   = regexp.MustCompile(`(?s)\AOriginal>\s*.*?Translation>[ \t]*\n?(.*)\z`)
	translationOnly = regexp.MustCompile(`(?s)\ATranslation>[ \t]*\n?(.*)\z`)
	numberedLineRE  = regexp.MustCompile(`(?m)^#?(\d+)[:.)\-][ \t]*(.+)$`)
	hashSpaceLineRE = regexp.MustCompile(`(?m)^#(\d+)[ \t]+(.+)$`)
)

// extract runs the pattern ladder over the response body and returns the
// matches from the first pattern that produced any, with the pattern name.
func extract(body string) ([]extracted, string) {
	blocks := splitBlocks(body)

	if matches := extractMarkedBlocks(blocks); len(matches) > 0 {
		return matches, patternMarkedBlocks
	}
	if matches := extractBareBlocks(blocks); len(matches) > 0 {
		return matches, patternBareBlocks
	}
	if matches := extractNumberedLines(body); len(matches) > 0 {
		return matches, patternNumberedLines
	}
	return nil, ""
}

type block struct {
	number  int
	content string
}

// splitBlocks divides the body at "#N" header lines.
func splitBlocks(body string) []block {
	headers := blockHeaderRE.FindAllStringSubmatchIndex(body, -1)
	blocks := make([]block, 0, len(headers))
	for i, header := range headers {
		number, err := strconv.Atoi(body[header[2]:header[3]])
		if err != nil {
			continue
		}
		start := header[1]
		end := len(body)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		blocks = append(blocks, block{number: number, content: strings.TrimSpace(body[start:end])})
	}
	return blocks
}

// extractMarkedBlocks requires the full Original>/Translation> structure.
func extractMarkedBlocks(blocks []block) []extracted {
	var out []extracted
	for _, b := range blocks {
		if m := markedBlockRE.FindStringSubmatch(b.content); m != nil {
			if text := strings.TrimSpace(m[1]); text != "" {
				out = append(out, extracted{number: b.number, text: text})
			}
			continue
		}
		if m := translationOnly.FindStringSubmatch(b.content); m != nil {
			if text := strings.TrimSpace(m[1]); text != "" {
				out = append(out, extracted{number: b.number, text: text})
			}
		}
	}
	return out
}

// extractBareBlocks takes a numbered block's whole content as the
// translation when the response skipped the markers.
func extractBareBlocks(blocks []block) []extracted {
	var out []extracted
	for _, b := range blocks {
		if text := strings.TrimSpace(b.content); text != "" {
			out = append(out, extracted{number: b.number, text: text})
		}
	}
	return out
}

// extractNumberedLines is the most lenient pattern: "12: text", "12. text",
// "#12) text", one line each.
func extractNumberedLines(body string) []extracted {
	var out []extracted
	for _, re := range []*regexp.Regexp{numberedLineRE, hashSpaceLineRE} {
		for _, m := range re.FindAllStringSubmatch(body, -1) {
			number, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if text := strings.TrimSpace(m[2]); text != "" {
				out = append(out, extracted{number: number, text: text})
			}
		}
		if len(out) > 0 {
			break
		}
	}
	return out
}

var tagREs = map[string]*regexp.Regexp{
	"summary": regexp.MustCompile(`(?s)<summary>\s*(.*?)\s*</summary>`),
	"scene":   regexp.MustCompile(`(?s)<scene>\s*(.*?)\s*</scene>`),
}

// extractTag pulls the last occurrence of a trailing tag out of the body and
// returns the tag payload plus the body with every occurrence removed.
func extractTag(body, name string) (string, string) {
	re := tagREs[name]
	matches := re.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return "", body
	}
	value := strings.TrimSpace(matches[len(matches)-1][1])
	return value, re.ReplaceAllString(body, "")
}
