package main

import (
	"fmt"
	"sort"
	"strings"
)

var examples = map[string]string{
	"Ask a quick question":                      `ai-cli run "What river runs through Turku?"`,
	"Ask about a local file":                    `ai-cli run file://./README.md`,
	"Summarize a page from the web":             `ai-cli run https://example.com/notes.txt`,
	"Use another model, give up after a minute": `ai-cli run --model mistral-small-latest --timeout 1m "Name three Baltic ports"`,
}

// examplesText renders the examples sorted by description.
func examplesText() string {
	descs := make([]string, 0, len(examples))
	for desc := range examples {
		descs = append(descs, desc)
	}
	sort.Strings(descs)

	var sb strings.Builder
	for i, desc := range descs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "  # %s\n  %s", desc, examples[desc])
	}
	return sb.String()
}
