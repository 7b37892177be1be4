// Package prompt assembles the message sequence sent to the language model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/hyperjump/annai/internal/llm"
	"github.com/hyperjump/annai/internal/models"
)

// Placeholders used when a profile field is unset.
const (
	placeholderSkills    = "Unknown"
	placeholderEducation = "Unknown"
	placeholderInterest  = "General"
)

const personaTemplate = `You are a Technical AI Career Guidance Assistant.
%s
Use the following context to provide professional, mentor-grade advice: %s

Rules:
1. Provide structured, clear, and encouraging guidance.
2. Use professional typography: bullet points for steps and skills.
3. Tailor recommendations specifically to the user's provided profile.
4. Maintain a calm, neutral, and helpful tone.`

// Assemble builds the full message sequence: one system message carrying the
// persona, the profile summary, and the retrieved context, followed by the
// prior user and assistant turns in order, and finally the current query.
// Messages with any other role are dropped from the history.
func Assemble(profile models.Profile, chunks []models.Chunk, history []models.ChatMessage, query string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    models.RoleSystem,
		Content: fmt.Sprintf(personaTemplate, profileSummary(profile), contextBlock(chunks)),
	})
	for _, msg := range history {
		if msg.Role != models.RoleUser && msg.Role != models.RoleAssistant {
			continue
		}
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, llm.Message{Role: models.RoleUser, Content: query})
	return messages
}

func profileSummary(p models.Profile) string {
	return fmt.Sprintf("User Profile: Skills(%s), Education(%s), Interest(%s).",
		orDefault(p.Skills, placeholderSkills),
		orDefault(p.Education, placeholderEducation),
		orDefault(p.Interest, placeholderInterest),
	)
}

func contextBlock(chunks []models.Chunk) string {
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	return strings.Join(texts, "\n\n")
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
