// Package all wires the built-in database backends into the storage
// registry. Import it for side effects:
//
//	import _ "co2etl/internal/storage/all"
//
// After that, storage.New and storage.DialectFor accept "mssql", "mysql",
// "postgres" and "sqlite".
package all

import (
	_ "co2etl/internal/storage/mssql"
	_ "co2etl/internal/storage/mysql"
	_ "co2etl/internal/storage/postgres"
	_ "co2etl/internal/storage/sqlite"
)
