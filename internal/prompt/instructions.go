package prompt

import (
	"fmt"
	"os"
	"strings"
)

const defaultUserPrompt = "Translate these subtitles[ for movie][ to language]"

var defaultInstructionLines = []string{
	"Your task is to accurately translate subtitles into a target language.",
	"",
	"You will receive a batch of lines for translation. Carefully read through the lines, along with any additional context provided.",
	"Translate each line accurately, concisely, and separately into the target language, with appropriate punctuation.",
	"",
	"The translation must have the same number of lines as the original, but you can adapt the content to fit the grammar of the target language.",
	"Make sure to translate all provided lines and do not ask whether to continue.",
	"",
	"Use any provided context to enhance your translations. If a name list is provided, ensure names are spelled according to the user's preference.",
	"If you detect obvious errors in the input, correct them in the translation using the available context, but do not improvise.",
	"",
	"At the end you should add <summary> and <scene> tags with information about the translation:",
	"<summary>A one or two line synopsis of the current batch.</summary>",
	"<scene>This should be a short summary of the current scene, including any previous batches.</scene>",
	"If the context is unclear, just summarize the dialogue.",
	"",
	"Your response will be processed by an automated system, so you MUST respond using the required format:",
	"",
	"Example (translating to English):",
	"",
	"#200",
	"Original>",
	"変わりゆく時代において、",
	"Translation>",
	"In an ever-changing era,",
	"",
	"#501",
	"Original>",
	"進化し続けることが生き残る秘訣です。",
	"Translation>",
	"continuing to evolve is the key to survival.",
}

var defaultRetryInstructionLines = []string{
	"There was an issue with the previous translation.",
	"",
	"Translate the subtitles again, ensuring each line is translated SEPARATELY, and EVERY line has a corresponding translation.",
	"",
	"Do NOT merge lines together in the translation, it leads to incorrect timings and confusion for the reader.",
}

// Instructions holds the templates a Builder renders requests from.
type Instructions struct {
	Prompt            string
	Instructions      string
	RetryInstructions string
}

// DefaultInstructions returns the built-in instruction set.
func DefaultInstructions() Instructions {
	return Instructions{
		Prompt:            defaultUserPrompt,
		Instructions:      strings.Join(defaultInstructionLines, "\n"),
		RetryInstructions: strings.Join(defaultRetryInstructionLines, "\n"),
	}
}

// LoadInstructionsFile reads an instruction set from a sectioned text file.
// Sections are introduced by "### name" headers: prompt, instructions, and
// retry_instructions. Missing retry instructions fall back to the default;
// a file without prompt or instructions is invalid.
func LoadInstructionsFile(path string) (Instructions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Instructions{}, fmt.Errorf("read instruction file: %w", err)
	}

	sections := map[string][]string{}
	var sectionName string
	for _, raw := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, "###") {
			sectionName = strings.TrimSpace(strings.TrimPrefix(line, "###"))
			sections[sectionName] = nil
			continue
		}
		if sectionName == "" {
			continue
		}
		if line == "" && len(sections[sectionName]) == 0 {
			continue
		}
		sections[sectionName] = append(sections[sectionName], line)
	}

	result := Instructions{
		Prompt:            strings.TrimSpace(strings.Join(sections["prompt"], "\n")),
		Instructions:      strings.TrimSpace(strings.Join(sections["instructions"], "\n")),
		RetryInstructions: strings.TrimSpace(strings.Join(sections["retry_instructions"], "\n")),
	}
	if result.Prompt == "" || result.Instructions == "" {
		return Instructions{}, fmt.Errorf("instruction file %s: prompt and instructions sections are required", path)
	}
	if result.RetryInstructions == "" {
		result.RetryInstructions = strings.Join(defaultRetryInstructionLines, "\n")
	}
	return result, nil
}

// ReplaceTags substitutes [tag] placeholders. Tags with empty values are
// removed so optional phrases like "[ for movie]" vanish cleanly.
func ReplaceTags(text string, tags map[string]string) string {
	for name, value := range tags {
		text = strings.ReplaceAll(text, "["+name+"]", value)
	}
	return text
}

// WithTags returns a copy of the instruction set with every template run
// through ReplaceTags.
func (i Instructions) WithTags(tags map[string]string) Instructions {
	return Instructions{
		Prompt:            ReplaceTags(i.Prompt, tags),
		Instructions:      ReplaceTags(i.Instructions, tags),
		RetryInstructions: ReplaceTags(i.RetryInstructions, tags),
	}
}
