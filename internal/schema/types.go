package schema

// KeyRole classifies a column's participation in keys.
type KeyRole int

const (
	KeyNone KeyRole = iota
	KeyPrimary
	KeyUnique
	KeyForeign
)

func (k KeyRole) String() string {
	switch k {
	case KeyPrimary:
		return "primary"
	case KeyUnique:
		return "unique"
	case KeyForeign:
		return "foreign"
	default:
		return "none"
	}
}

// Description is the introspected view of one catalog, tables in name order.
type Description struct {
	Tables []Table
}

type Table struct {
	Name    string
	Columns []Column
}

// Column is one column in ordinal position order.
type Column struct {
	Name     string
	DataType string
	Nullable bool
	Key      KeyRole
}

func parseKeyRole(raw string) KeyRole {
	switch raw {
	case "primary", "PRI":
		return KeyPrimary
	case "unique", "UNI":
		return KeyUnique
	case "foreign":
		return KeyForeign
	default:
		return KeyNone
	}
}
