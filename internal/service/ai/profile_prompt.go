package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/portfolio-chat/internal/model/profile"
)

// BuildSystemPrompt renders the system prompt for the assistant speaking on
// behalf of p.
func BuildSystemPrompt(p profile.Profile) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "You are the AI assistant on %s's portfolio website. ", p.Name)
	builder.WriteString("Answer visitors' questions about their background, skills, projects and how to get in touch.\n\n")

	builder.WriteString("Profile:\n")
	fmt.Fprintf(&builder, "- Name: %s\n", p.Name)
	if p.Headline != "" {
		fmt.Fprintf(&builder, "- Headline: %s\n", p.Headline)
	}
	if p.Summary != "" {
		fmt.Fprintf(&builder, "- Summary: %s\n", p.Summary)
	}
	writeList(&builder, "Skills", p.Skills)
	writeList(&builder, "Projects", p.Projects)
	if p.Contact != "" {
		fmt.Fprintf(&builder, "- Contact: %s\n", p.Contact)
	}

	builder.WriteString("\nRules:\n")
	tone := p.Tone
	if tone == "" {
		tone = "friendly and concise"
	}
	fmt.Fprintf(&builder, "- Keep replies %s, a few sentences at most.\n", tone)
	builder.WriteString("- Reply in plain text without markup.\n")
	if p.Guardrail != "" {
		fmt.Fprintf(&builder, "- %s\n", p.Guardrail)
	}

	return builder.String()
}

func writeList(builder *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(builder, "- %s:\n", label)
	for _, item := range items {
		fmt.Fprintf(builder, "  - %s\n", item)
	}
}
