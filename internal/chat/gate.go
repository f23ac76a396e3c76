package chat

import (
	"strings"

	"github.com/chatdb/chatdb/internal/nl2sql"
)

const SecurityMessage = "For security reasons, I can only execute SELECT queries to retrieve data."

type Decision int

const (
	DecisionSkip Decision = iota
	DecisionExecute
	DecisionReject
)

func (d Decision) String() string {
	switch d {
	case DecisionExecute:
		return "execute"
	case DecisionReject:
		return "reject"
	default:
		return "skip"
	}
}

// IsSelect reports whether sql begins with the SELECT keyword. It is a prefix
// check only; functions with side effects inside a SELECT are not detected.
func IsSelect(sql string) bool {
	trimmed := strings.TrimSpace(sql)
	if len(trimmed) < len("SELECT") || !strings.EqualFold(trimmed[:len("SELECT")], "SELECT") {
		return false
	}
	if len(trimmed) == len("SELECT") {
		return true
	}
	return !isIdentifierByte(trimmed[len("SELECT")])
}

// Gate classifies a candidate. Rejection replaces the response with
// SecurityMessage and clears NeedsQuery; the SQL itself is never modified.
func Gate(candidate *nl2sql.Candidate) Decision {
	if candidate.SQLQuery != "" && !IsSelect(candidate.SQLQuery) {
		candidate.Response = SecurityMessage
		candidate.NeedsQuery = false
		return DecisionReject
	}
	if candidate.NeedsQuery && candidate.SQLQuery != "" {
		return DecisionExecute
	}
	return DecisionSkip
}

func isIdentifierByte(b byte) bool {
	return b == '_' || b == '$' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}
