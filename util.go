package tsprep

// WhichSQLiteDriver names the database/sql driver the store was built with:
// "sqlite3" with cgo, "sqlite" without.
func WhichSQLiteDriver() string {
	return whichSQLiteDriver
}
