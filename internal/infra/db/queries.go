package db

// Queries holds the hand-written SQL. Every method takes the DBTX to run on,
// so the same value serves pool reads and transactional writes.
type Queries struct{}

func NewQueries() *Queries {
	return &Queries{}
}
