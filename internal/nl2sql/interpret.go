package nl2sql

import (
	"encoding/json"
	"regexp"
	"strings"
)

const (
	FallbackResponse   = "I received your question but couldn't generate a proper response."
	UnparsableResponse = "I'm having trouble processing your request. Please try rephrasing your question."
)

// Candidate is the structured reading of a model reply. An empty SQLQuery
// means the model proposed no query; NeedsQuery implies SQLQuery is set.
type Candidate struct {
	SQLQuery   string
	Response   string
	NeedsQuery bool
	// Degraded is set when the reply was not valid JSON and the query was
	// recovered heuristically.
	Degraded bool
}

var selectPattern = regexp.MustCompile(`(?is)\bSELECT\b[^;]*`)

type candidateJSON struct {
	SQLQuery   *string `json:"sqlQuery"`
	Response   *string `json:"response"`
	NeedsQuery *bool   `json:"needsQuery"`
}

// Interpret never fails: anything that is not a JSON object falls back to
// scanning the text for a SELECT statement.
func Interpret(raw string) Candidate {
	text := strings.TrimSpace(raw)
	body := stripFence(text)

	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		var parsed candidateJSON
		if err := json.Unmarshal([]byte(body[start:end+1]), &parsed); err == nil {
			return fromJSON(parsed)
		}
	}

	candidate := Candidate{Response: body, Degraded: true}
	if match := selectPattern.FindString(body); match != "" {
		candidate.SQLQuery = strings.TrimSpace(match)
		candidate.NeedsQuery = true
	}
	if candidate.Response == "" {
		candidate.Response = UnparsableResponse
	}
	return candidate
}

func fromJSON(parsed candidateJSON) Candidate {
	var candidate Candidate
	if parsed.SQLQuery != nil {
		candidate.SQLQuery = strings.TrimSpace(*parsed.SQLQuery)
	}
	if parsed.Response != nil {
		candidate.Response = strings.TrimSpace(*parsed.Response)
	}
	if candidate.Response == "" {
		candidate.Response = FallbackResponse
	}
	if parsed.NeedsQuery != nil {
		candidate.NeedsQuery = *parsed.NeedsQuery
	} else {
		candidate.NeedsQuery = candidate.SQLQuery != ""
	}
	if candidate.SQLQuery == "" {
		candidate.NeedsQuery = false
	}
	return candidate
}

func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := strings.TrimPrefix(text, "```")
	if newline := strings.IndexByte(body, '\n'); newline >= 0 {
		label := strings.TrimSpace(body[:newline])
		if label == "" || !strings.ContainsAny(label, "{} ") {
			body = body[newline+1:]
		}
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}
