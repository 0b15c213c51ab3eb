package store

import "database/sql"

// expectOne reports sql.ErrNoRows when a targeted write touched nothing.
func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
