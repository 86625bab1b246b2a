// Package history reconstructs a bounded, role-annotated conversation
// window from the flat message list supplied with each request. Nothing is
// retained between requests; the caller owns the full history.
package history

import (
	"strings"

	"github.com/avsthiago/e2e-serverless-rag/internal/models"
)

// Window annotates messages by position parity (even = user, odd =
// assistant) and keeps the last limit entries. Callers must supply turns in
// strict user/assistant alternation starting with the user; nothing here
// validates that, and a violated ordering silently mislabels turns.
func Window(messages []string, limit int) []models.Message {
	annotated := make([]models.Message, 0, len(messages))
	for i, msg := range messages {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		annotated = append(annotated, models.Message{Role: role, Content: strings.TrimSpace(msg)})
	}
	if limit > 0 && len(annotated) > limit {
		annotated = annotated[len(annotated)-limit:]
	}
	return annotated
}

// Render formats a window as "role: content" lines in chronological order.
func Render(messages []models.Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, string(msg.Role)+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}
