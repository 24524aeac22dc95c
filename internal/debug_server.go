package internal

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dgraph-io/badger/v4"
)

// StatsProvider feeds the /debug/stats endpoint, typically the stats worker's
// latest snapshot.
type StatsProvider func() map[string]any

type inspectRow struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// StartDebugServer exposes runtime counters and a raw key scan on a side
// port. Not part of the public surface; never exposed beyond localhost in
// any sane deployment.
func StartDebugServer(db *badger.DB, port int, statsProvider StatsProvider) {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/stats", func(w http.ResponseWriter, _ *http.Request) {
		stats := map[string]any{}
		if statsProvider != nil {
			stats = statsProvider()
		}
		writeJSON(w, stats)
	})

	mux.HandleFunc("/debug/keys", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "msg:"
		}

		var rows []inspectRow
		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					row := inspectRow{Key: string(item.Key())}
					if json.Valid(val) {
						row.Value = append(json.RawMessage(nil), val...)
					}
					rows = append(rows, row)
					return nil
				})
			}
			return nil
		})
		writeJSON(w, rows)
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("localhost:%d", port), mux)
	}()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}
