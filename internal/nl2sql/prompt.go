package nl2sql

import (
	"fmt"
	"strings"
)

// Request is the input to one generation call.
type Request struct {
	SchemaText string
	Question   string
}

func NewRequest(schemaText, question string) Request {
	return Request{
		SchemaText: strings.TrimSpace(schemaText),
		Question:   strings.TrimSpace(question),
	}
}

const promptRules = `Your job is to:
1. Understand the user's natural language question
2. Generate an appropriate SQL query using the EXACT table names from the schema
3. Only query with SELECT statements
4. Provide a clear, natural language response

IMPORTANT RULES:
- Only use SELECT statements
- Never use INSERT, UPDATE, DELETE, DROP, or any other destructive operation
- Always use the EXACT table and column names from the schema
- If the user asks about data that doesn't exist, explain what information is available
- If the user asks for the table names or about the database structure, answer from the schema without a query
- Be helpful and conversational in your responses

You MUST respond with ONLY a valid JSON object in this exact format (no additional text before or after):
{
  "sqlQuery": "The SQL query you generated (or null if no query needed)",
  "response": "Natural language response to the user",
  "needsQuery": true/false
}`

// BuildPrompt renders the single prompt sent to the model.
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are an expert SQL assistant that can help users query a database.\n\n")
	b.WriteString("Database Schema:\n")
	b.WriteString(req.SchemaText)
	b.WriteString("\n\n")
	b.WriteString(promptRules)
	fmt.Fprintf(&b, "\n\nUser Question: %s", req.Question)
	return b.String()
}
