package llm

import "strings"

// QueryPrefix precedes every search query sent for embedding.
const QueryPrefix = "Query: "

// PromptTemplate formats search queries for instruction-tuned embedding
// models. Stored entity text is embedded raw.
type PromptTemplate struct {
	InstructionPrefix string
	QueryPrefix       string
}

// SearchTemplate returns the template for queries over the given kind of
// entity, e.g. "notes" or "bank accounts".
func SearchTemplate(kind string) PromptTemplate {
	return PromptTemplate{
		InstructionPrefix: "Instruction: Given a user query, find " + kind + " stored with details that the user mentions",
		QueryPrefix:       QueryPrefix,
	}
}

// SimilarTemplate returns the template for short-label kinds such as tags,
// where the query is itself a candidate label.
func SimilarTemplate(kind string) PromptTemplate {
	return PromptTemplate{
		InstructionPrefix: "Instruction: Given a user query, find " + kind + " similar to the one the user mentions",
		QueryPrefix:       QueryPrefix,
	}
}

// Apply formats text. The instruction, when present, is on its own line.
func (p PromptTemplate) Apply(text string) string {
	var b strings.Builder
	if p.InstructionPrefix != "" {
		b.WriteString(p.InstructionPrefix)
		b.WriteByte('\n')
	}
	b.WriteString(p.QueryPrefix)
	b.WriteString(text)
	return b.String()
}
