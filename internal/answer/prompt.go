package answer

import (
	"fmt"
	"strings"

	"ragbot/internal/models"
	"ragbot/internal/util"
)

// BuildPrompt assembles the single completion request: persona and rules, the
// registered document listing (omitted when empty) and the user's question.
// It is a pure function of its inputs.
func BuildPrompt(files []models.UploadedFile, question string, maxWords int) string {
	var b strings.Builder
	b.WriteString("You are the client assistant for ABS Developers, a real estate developer. ")
	b.WriteString("You answer questions about ABS Developers' projects, properties, apartments, prices and payment plans ")
	b.WriteString("using the brochure documents uploaded by the company.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("1. Only answer questions about ABS Developers' real estate projects, properties and payment plans.\n")
	fmt.Fprintf(&b, "2. If the question is about anything else, reply with exactly this sentence and nothing more: %s\n", OffTopicSentinel)
	fmt.Fprintf(&b, "3. Keep every answer under %d words.\n", maxWords)
	b.WriteString("4. Write plain text only. No markdown, asterisks, bullet points, headings or links.\n")
	b.WriteString("5. Do not use quotation marks.\n")
	b.WriteString("6. Never describe yourself as an AI, a chatbot, a language model or a virtual assistant.\n")
	b.WriteString("7. Speak as a friendly, professional member of the ABS Developers sales team.\n")
	b.WriteString("8. Only state facts that come from the documents.\n")
	b.WriteString("9. If the documents do not contain the answer, say so and suggest contacting the ABS Developers sales office. Never guess.\n")

	if len(files) > 0 {
		b.WriteString("\nAvailable documents:\n")
		for i, f := range files {
			fmt.Fprintf(&b, "%d. %s (%s, %.2f MB)\n", i+1, util.SanitizeText(f.FileName), f.MimeType, f.SizeMB())
		}
	}

	b.WriteString("\nUser question: ")
	b.WriteString(util.SanitizeText(question))
	return b.String()
}
