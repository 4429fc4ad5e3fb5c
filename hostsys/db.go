package hostsys

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/aivm-run/aivm/hostcall"
	"github.com/aivm-run/aivm/nodeheap"
	"github.com/aivm-run/aivm/values"
)

// dbQuery opens dsn (a PDO-style "driver:params" string), runs query, and
// returns the result set as a "Rows" node whose children are "Row" nodes
// with one string attribute per column, keyed by column name. A fresh
// *sql.DB is opened and closed per call; scripted programs are not
// expected to run queries in a hot loop.
func (e *Env) dbQuery(target string, args []values.Value, out *values.Value) hostcall.Status {
	dsnStr, ok := e.resolveArg(args, 0)
	if !ok {
		return hostcall.Invalid
	}
	query, ok := e.resolveArg(args, 1)
	if !ok {
		return hostcall.Invalid
	}

	parsed, err := parseDSN(dsnStr)
	if err != nil {
		return hostcall.Invalid
	}
	driverName, connStr, err := driverAndConnString(parsed)
	if err != nil {
		return hostcall.Invalid
	}

	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return hostcall.Invalid
	}
	defer db.Close()

	rows, err := db.Query(query)
	if err != nil {
		return hostcall.Invalid
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return hostcall.Invalid
	}

	var rowHandles []int64
	for rows.Next() {
		scanDest := make([]interface{}, len(cols))
		scanBuf := make([]sql.NullString, len(cols))
		for i := range scanBuf {
			scanDest[i] = &scanBuf[i]
		}
		if err := rows.Scan(scanDest...); err != nil {
			return hostcall.Invalid
		}
		attrs := make([]nodeheap.AttrInput, len(cols))
		for i, col := range cols {
			attrs[i] = nodeheap.AttrInput{Key: col, Kind: nodeheap.AttrString, ValueStr: scanBuf[i].String}
		}
		handle, err := e.Heap.Create("Row", "", attrs, nil)
		if err != nil {
			return hostcall.Invalid
		}
		rowHandles = append(rowHandles, handle)
	}
	if err := rows.Err(); err != nil {
		return hostcall.Invalid
	}

	handle, err := e.Heap.Create("Rows", "", nil, rowHandles)
	if err != nil {
		return hostcall.Invalid
	}
	*out = values.Node(handle)
	return hostcall.Ok
}
