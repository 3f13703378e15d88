package ddl

// ColumnDef describes one column of a table definition. Names are stored
// unquoted; quoting happens when a Dialect renders the statement.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
}

// TableDef is a table name, optionally schema-qualified ("dbo.co2"), plus an
// ordered column list.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Logical column kinds of the output table, translated by Dialect.MapType.
const (
	KindText  = "text"
	KindInt   = "int"
	KindFloat = "float"
)
