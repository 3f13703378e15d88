package ddl

import "co2etl/internal/schema"

// OutputTable returns the definition of the exported table named fqn, with
// column types chosen by mapType. (entity, year) is the primary key; every
// metric column is nullable.
func OutputTable(fqn string, mapType func(kind string) string) TableDef {
	names := schema.OutputColumns()
	cols := make([]ColumnDef, 0, len(names))
	for _, n := range names {
		switch n {
		case schema.Entity:
			cols = append(cols, ColumnDef{Name: n, SQLType: mapType(KindText), PrimaryKey: true})
		case schema.Year:
			cols = append(cols, ColumnDef{Name: n, SQLType: mapType(KindInt), PrimaryKey: true})
		default:
			cols = append(cols, ColumnDef{Name: n, SQLType: mapType(KindFloat), Nullable: true})
		}
	}
	return TableDef{FQN: fqn, Columns: cols}
}
