package db

import (
	"database/sql"
	"strconv"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"crud_backend/internal/platform/search"
)

// SQLiteDriverName is the database/sql driver whose connections carry the
// search functions.
const SQLiteDriverName = "sqlite3_search"

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc(search.NormalizeFunc, normalizeValue, true)
		},
	})
}

// normalizeValue applies search.Normalize to a column value. NULL stays NULL.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case string:
		return search.Normalize(x)
	case []byte:
		if x == nil {
			return nil
		}
		return search.Normalize(string(x))
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return nil
}

// SQLite returns a gorm dialector for dsn on the SQLiteDriverName driver.
func SQLite(dsn string) gorm.Dialector {
	return sqlite.New(sqlite.Config{DriverName: SQLiteDriverName, DSN: dsn})
}
