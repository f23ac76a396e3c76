package chat

import (
	"fmt"

	"github.com/chatdb/chatdb/internal/nl2sql"
	"github.com/chatdb/chatdb/internal/query"
)

// Envelope is the JSON body returned for one chat turn. Data is null when no
// query ran and an empty array when the query matched nothing.
type Envelope struct {
	SQLQuery   *string     `json:"sqlQuery"`
	Response   string      `json:"response"`
	NeedsQuery bool        `json:"needsQuery"`
	Data       []query.Row `json:"data"`
	Error      string      `json:"error,omitempty"`
}

func Compose(candidate nl2sql.Candidate, outcome Outcome) Envelope {
	envelope := Envelope{
		Response:   candidate.Response,
		NeedsQuery: candidate.NeedsQuery,
	}
	if candidate.SQLQuery != "" {
		sql := candidate.SQLQuery
		envelope.SQLQuery = &sql
	}

	switch outcome.Kind {
	case OutcomeSuccess:
		rows := outcome.Rows
		if rows == nil {
			rows = []query.Row{}
		}
		envelope.Data = rows
		if len(rows) > 0 {
			envelope.Response = fmt.Sprintf("Found %d result(s). %s", len(rows), candidate.Response)
		} else {
			envelope.Response = "No results found. " + candidate.Response
		}
	case OutcomeFailure:
		envelope.Error = outcome.Message
		envelope.Response = fmt.Sprintf("I encountered an error while querying the database: %s. Please check if the table names and column names are correct.", outcome.Message)
	}
	return envelope
}

// ComposeGenerationFailure reports a failed or timed out model call.
func ComposeGenerationFailure(err error) Envelope {
	return Envelope{
		Response: fmt.Sprintf("I couldn't get an answer from the language model: %s. Please try again.", err.Error()),
		Error:    err.Error(),
	}
}
