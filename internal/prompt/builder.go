package prompt

import (
	"fmt"
	"strings"

	"subtrans/internal/subtitle"
)

// Request is a rendered provider payload.
type Request struct {
	System string
	User   string
	// Retry marks that the retry instruction variant was used.
	Retry bool
}

// Context carries the running scene state rendered into a batch request.
type Context struct {
	SceneNumber  int
	BatchNumber  int
	SceneSummary string
	BatchSummary string
	// History holds summaries of previously translated scenes and batches,
	// oldest first.
	History []string
}

// Builder renders batch requests from an instruction set and document-level
// settings.
type Builder struct {
	instructions Instructions
	movieName    string
	description  string
	names        []string
	language     string
	maxHistory   int
}

// Settings configures a Builder.
type Settings struct {
	MovieName      string
	Description    string
	Names          []string
	TargetLanguage string
	// MaxContextLines limits how many history lines are rendered per request.
	MaxContextLines int
}

// NewBuilder constructs a Builder, substituting movie/language tags into the
// instruction templates once up front.
func NewBuilder(instructions Instructions, settings Settings) *Builder {
	tags := map[string]string{
		" for movie":   "",
		" to language": "",
		"movie_name":   settings.MovieName,
		"language":     settings.TargetLanguage,
	}
	if settings.MovieName != "" {
		tags[" for movie"] = " for " + settings.MovieName
	}
	if settings.TargetLanguage != "" {
		tags[" to language"] = " to " + settings.TargetLanguage
	}
	return &Builder{
		instructions: instructions.WithTags(tags),
		movieName:    settings.MovieName,
		description:  settings.Description,
		names:        settings.Names,
		language:     settings.TargetLanguage,
		maxHistory:   settings.MaxContextLines,
	}
}

// Build renders the request for a batch. On retry the stricter retry
// instructions are appended to the system text.
func (b *Builder) Build(lines []subtitle.Line, ctx Context, retry bool) Request {
	system := b.instructions.Instructions
	if retry {
		system = system + "\n\n" + b.instructions.RetryInstructions
	}

	var sb strings.Builder
	b.writeContext(&sb, ctx)
	sb.WriteString(b.instructions.Prompt)
	sb.WriteString("\n")
	for _, line := range lines {
		sb.WriteString(fmt.Sprintf("\n#%d\nOriginal>\n%s\nTranslation>\n", line.Number, line.Text))
	}

	return Request{System: system, User: sb.String(), Retry: retry}
}

func (b *Builder) writeContext(sb *strings.Builder, ctx Context) {
	var parts []string
	if b.movieName != "" {
		parts = append(parts, "movie_name: "+b.movieName)
	}
	if b.description != "" {
		parts = append(parts, "description: "+b.description)
	}
	if len(b.names) > 0 {
		parts = append(parts, "names: "+strings.Join(b.names, ", "))
	}
	history := ctx.History
	if b.maxHistory > 0 && len(history) > b.maxHistory {
		history = history[len(history)-b.maxHistory:]
	}
	if len(history) > 0 {
		parts = append(parts, "history:\n"+strings.Join(history, "\n"))
	}
	if ctx.SceneSummary != "" {
		parts = append(parts, fmt.Sprintf("scene: Scene %d: %s", ctx.SceneNumber, ctx.SceneSummary))
	} else if ctx.SceneNumber > 0 {
		parts = append(parts, fmt.Sprintf("scene: Scene %d", ctx.SceneNumber))
	}
	if ctx.BatchSummary != "" {
		parts = append(parts, fmt.Sprintf("batch: Batch %d: %s", ctx.BatchNumber, ctx.BatchSummary))
	} else if ctx.BatchNumber > 0 {
		parts = append(parts, fmt.Sprintf("batch: Batch %d", ctx.BatchNumber))
	}
	if len(parts) == 0 {
		return
	}
	sb.WriteString("<context>\n")
	sb.WriteString(strings.Join(parts, "\n"))
	sb.WriteString("\n</context>\n\n")
}
