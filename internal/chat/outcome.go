package chat

import (
	"context"

	"github.com/chatdb/chatdb/internal/query"
)

type OutcomeKind int

const (
	OutcomeSkipped OutcomeKind = iota
	OutcomeSuccess
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "skipped"
	}
}

// Outcome is the result of running, or not running, an approved query.
// Rows is set only for OutcomeSuccess and Message only for OutcomeFailure.
type Outcome struct {
	Kind     OutcomeKind
	Rows     []query.Row
	RowCount int
	Message  string
}

// Execute runs sql and folds any engine error into a failure outcome.
func Execute(ctx context.Context, engine query.Engine, sql string) Outcome {
	result, err := engine.Execute(ctx, query.Request{SQL: sql})
	if err != nil {
		return Outcome{Kind: OutcomeFailure, Message: err.Error()}
	}
	rows := result.Rows
	if rows == nil {
		rows = []query.Row{}
	}
	return Outcome{Kind: OutcomeSuccess, Rows: rows, RowCount: len(rows)}
}
