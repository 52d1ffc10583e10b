// Package all registers every storage backend with the storage factory.
package all

import (
	_ "github.com/Ravenkao/bank-snapshot/internal/storage/mssql"
	_ "github.com/Ravenkao/bank-snapshot/internal/storage/postgres"
	_ "github.com/Ravenkao/bank-snapshot/internal/storage/sqlite"
)
