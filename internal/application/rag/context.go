package rag

import "strings"

// contextBudgetNote marks text cut to fit the context budget inside
// the assembled prompt context.
const contextBudgetNote = " [passage truncated to fit the context budget]"

// assembleContext joins ranked passages into the prompt context,
// keeping the combined length within maxChars. Passages are dropped
// lowest-ranked first; when the single remaining passage still exceeds
// the budget its text is cut and marked, never silently. The returned
// slice holds the retained passages in rank order, and their 1-based
// positions match the source markers in the context string.
func assembleContext(results []RetrievedResult, maxChars int) (string, []RetrievedResult) {
	if len(results) == 0 {
		return "", nil
	}

	retained := results
	for {
		blocks := make([]string, len(retained))
		total := 0
		for i, res := range retained {
			blocks[i] = formatSource(i+1, res)
			total += len(blocks[i]) + 1
		}
		if maxChars <= 0 || total <= maxChars {
			return strings.Join(blocks, "\n"), retained
		}
		if len(retained) == 1 {
			break
		}
		retained = retained[:len(retained)-1]
	}

	// One passage left and still over budget: cut its text so the
	// formatted block fits, with an explicit marker in the context.
	res := retained[0]
	block := formatSource(1, res)
	if len(block) <= maxChars {
		return block, retained[:1]
	}
	overhead := len(block) - len(res.Chunk.Text)
	res.Chunk.Text = clipText(res.Chunk.Text, maxChars-overhead-len(contextBudgetNote)) + contextBudgetNote
	return formatSource(1, res), []RetrievedResult{res}
}

// clipText returns the longest prefix of s that fits in max bytes
// without splitting a rune.
func clipText(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := 0
	for i := range s {
		if i > max {
			break
		}
		cut = i
	}
	return s[:cut]
}
