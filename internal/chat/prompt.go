package chat

import (
	"strings"

	"github.com/ziadkadry99/docchat/internal/conversation"
)

const systemInstruction = `You are a helpful AI assistant. Use the following context from the uploaded documents to answer the user's question. If the answer cannot be found in the context, say so clearly and the response should be in clear format. If the question is so general like Hi, Thank you, etc... then you can answer on your own knowledge, you don't have to see the vector database or mention any source. If the question is related to the chat history, you can use the chat history to answer the question.`

const condenseInstruction = `Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question, in its original language.`

// buildPrompt assembles the single prompt sent to the LLM.
func buildPrompt(contextTexts []string, history []conversation.Turn, question string) string {
	var b strings.Builder
	b.WriteString(systemInstruction)
	b.WriteString("\n\nContext: ")
	b.WriteString(strings.Join(contextTexts, "\n\n"))
	b.WriteString("\n\nChat History: ")
	b.WriteString(formatHistory(history))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}

// formatHistory renders turns as alternating Human/Assistant lines.
func formatHistory(history []conversation.Turn) string {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range history {
		b.WriteString("\nHuman: ")
		b.WriteString(t.Question)
		b.WriteString("\nAssistant: ")
		b.WriteString(t.Answer)
	}
	return b.String()
}

func buildCondensePrompt(history []conversation.Turn, question string) string {
	var b strings.Builder
	b.WriteString(condenseInstruction)
	b.WriteString("\n\nChat History:")
	b.WriteString(formatHistory(history))
	b.WriteString("\nFollow Up Input: ")
	b.WriteString(question)
	b.WriteString("\nStandalone question:")
	return b.String()
}
