package ranking

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

func GetDatabase(filename string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers anyway; one connection also keeps :memory: coherent
	db.SetMaxOpenConns(1)
	return db, nil
}
