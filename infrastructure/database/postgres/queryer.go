package postgres

import "database/sql"

// Queryer é o subconjunto de operações satisfeito tanto por *sql.DB quanto
// por *sql.Tx. Repositórios recebem um Queryer nas operações que precisam
// participar de uma transação ambiente.
type Queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}
