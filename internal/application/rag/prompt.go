package rag

import (
	"fmt"
	"strings"
)

// PromptVersion identifies the template used to build generation
// prompts. Bump it when the wording changes so answer regressions can
// be traced to a template revision.
const PromptVersion = "v1"

const systemPromptV1 = "You are a well-read, insightful Shakespeare guide providing detailed, analytical responses. " +
	"When quoting Shakespeare, always include the Act and Scene. " +
	"Structure your responses with clear context, specific quotes, and thoughtful analysis. " +
	"Ground every claim in the provided context passages."

const userPromptV1 = `You are answering a question about Shakespeare's works using only the context passages below. Follow this approach:

1. **Provide Context**: Set the scene and explain the dramatic situation
2. **Quote Specifically**: Include exact quotes from the text with proper attribution
3. **Analyze the Moment**: Explain the significance and what it reveals about characters and themes
4. **Connect to Broader Themes**: Show how this moment fits into the larger play

Use markdown formatting: **bold** for emphasis, *italic* for character names and play titles, and quotes with proper Act/Scene attribution.

CONTEXT FROM SHAKESPEARE'S WORKS:
%s

QUESTION: %s

Provide a thoughtful, well-structured response grounded in the context above. If the context does not contain the answer, say so rather than inventing one.

RESPONSE:`

// BuildPrompt renders the system and user messages for one question.
func BuildPrompt(question, contextBlock string) (system, user string) {
	return systemPromptV1, fmt.Sprintf(userPromptV1, contextBlock, question)
}

// formatSource renders one context passage with its source marker. The
// marker index matches the Source entry returned to the caller.
func formatSource(index int, res RetrievedResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- Source %d ---\n", index)
	fmt.Fprintf(&b, "Play: %s\n", res.Chunk.Play)
	fmt.Fprintf(&b, "Act: %s\n", res.Chunk.ActLabel)
	fmt.Fprintf(&b, "Scene: %s\n", res.Chunk.SceneTitle)
	if len(res.Chunk.Characters) > 0 {
		fmt.Fprintf(&b, "Characters: %s\n", strings.Join(res.Chunk.Characters, ", "))
	}
	fmt.Fprintf(&b, "Relevance: %.3f\n", res.Similarity)
	if res.Chunk.Truncated {
		b.WriteString("Note: passage truncated at chunking\n")
	}
	fmt.Fprintf(&b, "Content: %s\n", res.Chunk.Text)
	return b.String()
}
