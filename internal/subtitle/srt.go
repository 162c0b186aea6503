package subtitle

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DocumentMeta carries format-level details that must survive a round trip.
type DocumentMeta struct {
	// Newline is the line separator used by the source document.
	Newline string
	// BOM records whether the document began with a UTF-8 byte order mark.
	BOM bool
}

// FileHandler parses a subtitle document into ordered lines and composes the
// translated result back out. The pipeline treats per-line metadata as opaque.
type FileHandler interface {
	Parse(content string) ([]Line, DocumentMeta, error)
	Compose(lines []Line, meta DocumentMeta) (string, error)
}

// SRTHandler reads and writes SubRip (.srt) documents.
type SRTHandler struct{}

const metaCueSettings = "srt_cue_settings"

const bomMark = "\uFEFF"

// Parse splits SRT content into lines. Cue numbers from the file are
// discarded; lines are renumbered sequentially so downstream numbering is
// strictly increasing even for malformed documents.
func (SRTHandler) Parse(content string) ([]Line, DocumentMeta, error) {
	meta := DocumentMeta{Newline: "\n"}
	if strings.HasPrefix(content, bomMark) {
		meta.BOM = true
		content = strings.TrimPrefix(content, bomMark)
	}
	if strings.Contains(content, "\r\n") {
		meta.Newline = "\r\n"
	}
	normalized := strings.ReplaceAll(content, "\r\n", "\n")

	var lines []Line
	number := 0
	for _, block := range strings.Split(normalized, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		rows := strings.Split(block, "\n")
		timingRow := -1
		for i, row := range rows {
			if strings.Contains(row, "-->") {
				timingRow = i
				break
			}
		}
		if timingRow < 0 {
			return nil, meta, fmt.Errorf("srt block %d: missing timing row", len(lines)+1)
		}
		start, end, settings, err := parseTimingRow(rows[timingRow])
		if err != nil {
			return nil, meta, fmt.Errorf("srt block %d: %w", len(lines)+1, err)
		}
		text := strings.Join(rows[timingRow+1:], "\n")
		number++
		line := Line{
			Number: number,
			Start:  start,
			End:    end,
			Text:   text,
		}
		if settings != "" {
			line.Metadata = map[string]string{metaCueSettings: settings}
		}
		lines = append(lines, line)
	}
	return lines, meta, nil
}

// Compose renders lines back to SRT, preferring translations and falling back
// to source text for untranslated lines.
func (SRTHandler) Compose(lines []Line, meta DocumentMeta) (string, error) {
	newline := meta.Newline
	if newline == "" {
		newline = "\n"
	}
	var sb strings.Builder
	if meta.BOM {
		sb.WriteString(bomMark)
	}
	for i, line := range lines {
		if line.End < line.Start {
			return "", fmt.Errorf("line %d: end precedes start", line.Number)
		}
		if i > 0 {
			sb.WriteString(newline)
		}
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(newline)
		sb.WriteString(FormatTimestamp(line.Start))
		sb.WriteString(" --> ")
		sb.WriteString(FormatTimestamp(line.End))
		if settings := line.Metadata[metaCueSettings]; settings != "" {
			sb.WriteString(" ")
			sb.WriteString(settings)
		}
		sb.WriteString(newline)
		text := line.Translation
		if strings.TrimSpace(text) == "" {
			text = line.Text
		}
		sb.WriteString(strings.ReplaceAll(text, "\n", newline))
		sb.WriteString(newline)
	}
	return sb.String(), nil
}

func parseTimingRow(row string) (time.Duration, time.Duration, string, error) {
	parts := strings.SplitN(row, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, "", fmt.Errorf("invalid timing row %q", row)
	}
	start, err := ParseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, "", err
	}
	rest := strings.TrimSpace(parts[1])
	settings := ""
	if idx := strings.IndexAny(rest, " \t"); idx >= 0 {
		settings = strings.TrimSpace(rest[idx+1:])
		rest = rest[:idx]
	}
	end, err := ParseTimestamp(rest)
	if err != nil {
		return 0, 0, "", err
	}
	return start, end, settings, nil
}

// ParseTimestamp parses an SRT timestamp (HH:MM:SS,mmm). A period is accepted
// in place of the comma.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	total := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
	return total, nil
}
