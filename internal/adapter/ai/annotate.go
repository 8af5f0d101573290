package ai

import (
	"fmt"

	"github.com/curiolabs/curio-graph/internal/domain"
)

// Shared annotation material for chat-backed annotators: the canned
// band labels used when the model is not consulted, and the prompts
// sent when it is.

const (
	// modelConsultThreshold is the similarity above which an edge is
	// worth a model call. Below it the band label is returned directly.
	modelConsultThreshold = 0.5

	annotateSystemPrompt = "You are a helpful assistant that explains relationships between content pieces concisely."
	compareSystemPrompt  = "You are a helpful assistant that analyzes relationships between content pieces concisely."

	// Content sent to the model is truncated so prompts stay small.
	annotateMaxChars = 200
	compareMaxChars  = 400

	annotateMaxTokens = 50
	compareMaxTokens  = 300
)

// bandLabel maps a similarity score onto a canned relationship label.
func bandLabel(similarity float64) string {
	switch {
	case similarity > 0.7:
		return "High similarity - Very related topics"
	case similarity > 0.5:
		return "Moderate similarity - Related concepts"
	default:
		return "Low similarity - Slightly related"
	}
}

// annotateUserPrompt asks for a one-sentence relationship description.
func annotateUserPrompt(a, b domain.Post) string {
	return fmt.Sprintf("Post 1: %s\n\nPost 2: %s\n\nExplain the relationship between these two posts in one sentence:",
		truncate(a.Content, annotateMaxChars), truncate(b.Content, annotateMaxChars))
}

// compareUserPrompt asks for a structured comparison. The fixed
// "Post 1"/"Post 2" wording keeps the response aligned with the labels
// the caller attaches to each side.
func compareUserPrompt(a, b domain.Post) string {
	return fmt.Sprintf(`Analyze the relationship between these two posts. IMPORTANT: Always refer to them as "Post 1" and "Post 2" in your analysis.

Post 1:
Title: %s
Content: %s

Post 2:
Title: %s
Content: %s

Format your response exactly as:
SIMILARITIES:
• Post 1 and Post 2 both discuss...
• Both posts mention...

DIFFERENCES:
• Post 1 focuses on... while Post 2 covers...
• Post 1 takes the angle of... whereas Post 2...

SUMMARY:
Brief summary of how the posts relate (always refer to them as "Post 1" and "Post 2").`,
		a.Title, truncate(a.Content, compareMaxChars),
		b.Title, truncate(b.Content, compareMaxChars))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
