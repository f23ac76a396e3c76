package schema

import (
	"fmt"
	"strings"
)

// Render formats a description as the compact text block embedded in prompts
// and returned by the debug endpoint.
func Render(desc Description) string {
	var b strings.Builder
	for i, table := range desc.Tables {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Table: %s\n", table.Name)
		b.WriteString("Columns:\n")
		for _, col := range table.Columns {
			fmt.Fprintf(&b, "  - %s\n", renderColumn(col))
		}
	}
	return b.String()
}

func renderColumn(col Column) string {
	line := col.Name + ": " + col.DataType
	if !col.Nullable {
		line += " NOT NULL"
	}
	switch col.Key {
	case KeyPrimary:
		line += " (PRI)"
	case KeyUnique:
		line += " (UNI)"
	case KeyForeign:
		line += " (FK)"
	}
	return line
}
