package db

import "database/sql"

// Querier is satisfied by *sql.DB, *sql.Tx and *Tx so storages can run the
// same queries inside or outside a transaction
type Querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}
