package query

import "strconv"

// PaginateQuery appends cursor, ordering and limit clauses to a query whose
// conditions are wrapped in brackets, "SELECT ... WHERE (...)". Positional
// arguments continue from the ones already in args.
func PaginateQuery(query string, args []interface{}, cursor Cursor, limit uint64, direction Ordering) (string, []interface{}) {
	if len(cursor) > 0 {
		comparison := " > "
		if direction == Descending {
			comparison = " < "
		}
		args = append(args, cursor.ToUint64())
		query += " AND id" + comparison + "$" + strconv.Itoa(len(args))
	}

	if direction == Descending {
		query += " ORDER BY id DESC"
	} else {
		query += " ORDER BY id ASC"
	}

	if limit > 0 {
		args = append(args, limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	return query, args
}
