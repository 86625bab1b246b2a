// Package prompt assembles the grounded prompt submitted to the
// generative model. The output is computed per request and never
// persisted.
package prompt

import (
	"fmt"
	"strings"

	"github.com/avsthiago/e2e-serverless-rag/internal/history"
	"github.com/avsthiago/e2e-serverless-rag/internal/models"
)

// Build renders the prompt from retrieved chunks (in relevance order), the
// conversation window and the verbatim question. The embedded task
// instruction asks the model to answer only from the material above it;
// that is a contract with the model, not something this code can enforce.
func Build(question string, chunks []models.RetrievedChunk, messages []models.Message) string {
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	return fmt.Sprintf(models.PromptTemplate, strings.Join(texts, "\n\n"), history.Render(messages), question)
}
