package types

// Migration is a single schema change. SQL holds both directions split by the
// "-- +migrate Up" marker, down part first.
type Migration struct {
	ID     string
	SQL    string
	Prefix string
}
