package llm

import (
	"strings"
)

// NotAvailableResponse is returned when nothing relevant was retrieved.
const NotAvailableResponse = "The requested information is not available in the uploaded document."

const systemInstruction = `You are a document assistant for pharmaceutical documents.
Answer the question using only the information in the Context section.
Do not use outside knowledge and do not guess.
If the Context does not contain the answer, reply exactly: "` + NotAvailableResponse + `"
Answer in the same language as the question.`

type Prompt struct {
	System string
	User   string
}

// BuildPrompt is shared by batch and streaming generation.
func BuildPrompt(contextText, question string) Prompt {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	sb.WriteString(contextText)
	sb.WriteString("\n\nQuestion:\n")
	sb.WriteString(question)
	return Prompt{System: systemInstruction, User: sb.String()}
}

// JoinContext puts retrieved chunks into one context block, in retrieval order.
func JoinContext(contexts []string) string {
	return strings.Join(contexts, "\n")
}
