package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const closingInstruction = "Answer in clear, professional language. Cite specific sections of the Zanzibar Labour Relations Act 2005 where relevant."

const systemFile = "system.txt"

// fragmentFiles maps each category to its fragment file inside the prompt
// directory.
var fragmentFiles = map[Category]string{
	CategoryDefinition:           "definition.txt",
	CategoryRights:               "rights.txt",
	CategoryRegistration:         "registration.txt",
	CategoryCollectiveBargaining: "collective_bargaining.txt",
	CategoryStrike:               "strike.txt",
	CategoryDisputeResolution:    "dispute_resolution.txt",
	CategoryCompliance:           "compliance.txt",
	CategoryHistorical:           "historical.txt",
	CategoryPractical:            "practical.txt",
}

// Library holds the system prompt plus the per-category fragments. It is
// loaded once at startup and never mutated afterwards; handlers receive it
// by injection rather than reading files per request.
type Library struct {
	system    string
	fragments map[Category]string
}

// Load reads system.txt and every category fragment from dir. All files are
// required; a partially configured prompt directory is a deployment error.
func Load(dir string) (*Library, error) {
	sys, err := os.ReadFile(filepath.Join(dir, systemFile))
	if err != nil {
		return nil, fmt.Errorf("read system prompt: %w", err)
	}
	frags := make(map[Category]string, len(fragmentFiles))
	for cat, name := range fragmentFiles {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s fragment: %w", cat, err)
		}
		frags[cat] = strings.TrimSpace(string(b))
	}
	return &Library{system: strings.TrimSpace(string(sys)), fragments: frags}, nil
}

// NewLibrary builds a Library from in-memory texts.
func NewLibrary(system string, fragments map[Category]string) *Library {
	frags := make(map[Category]string, len(fragments))
	for cat, text := range fragments {
		frags[cat] = text
	}
	return &Library{system: system, fragments: frags}
}

// Fragment returns the prompt block for cat, or "" when none is configured.
func (l *Library) Fragment(cat Category) string {
	return l.fragments[cat]
}

// BuildPrompt classifies question and assembles the final prompt. A question
// that matches no category gets the system prompt alone.
func (l *Library) BuildPrompt(question string) string {
	fragment := ""
	if cat, ok := Classify(question); ok {
		fragment = l.fragments[cat]
	}
	return Assemble(l.system, fragment, question)
}

// Assemble performs the deterministic prompt layout: system block, category
// block (may be empty), the verbatim user question, then the closing
// instruction. No truncation and no escaping; the question text goes in
// as-is.
func Assemble(system, category, question string) string {
	return fmt.Sprintf("%s\n\n%s\n\nUser Question: %s\n\n%s\n", system, category, question, closingInstruction)
}
