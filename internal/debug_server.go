package internal

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

const defaultInspectPrefix = "msg:"

// maxInspectRows bounds a single listing, the message log can be large.
const maxInspectRows = 500

type InspectRow struct {
	Key    string
	Size   int
	Detail string
}

// RowMapper turns a raw badger entry into a table row.
type RowMapper func(key string, val []byte) InspectRow

// StatsProvider returns the figures printed above the table.
type StatsProvider func() map[string]any

// NewDebugHandler serves GET /inspect?prefix=msg: as a plain text table of
// badger entries, preceded by the current stats.
func NewDebugHandler(db *badger.DB, mapper RowMapper, statsProvider StatsProvider) http.Handler {
	if mapper == nil {
		mapper = DefaultMapper
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = defaultInspectPrefix
		}
		rows, err := scan(db, prefix, mapper)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if statsProvider != nil {
			writeStats(w, statsProvider())
		}
		writeTable(w, rows)
	})
	return mux
}

// StartDebugServer listens on localhost only. It is meant for DEBUG runs.
func StartDebugServer(log *slog.Logger, db *badger.DB, port int, mapper RowMapper, statsProvider StatsProvider) *http.Server {
	server := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: NewDebugHandler(db, mapper, statsProvider),
	}
	go func() {
		log.Debug("Debug inspector listening", "url", fmt.Sprintf("http://%s/inspect?prefix=%s", server.Addr, defaultInspectPrefix))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("Debug inspector stopped", "error", err)
		}
	}()
	return server
}

func scan(db *badger.DB, prefix string, mapper RowMapper) ([]InspectRow, error) {
	var rows []InspectRow
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p) && len(rows) < maxInspectRows; it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			if err := item.Value(func(val []byte) error {
				rows = append(rows, mapper(key, val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return rows, err
}

func writeStats(w io.Writer, stats map[string]any) {
	keys := lo.Keys(stats)
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "%s: %v\n", k, stats[k])
	}
	_, _ = fmt.Fprintln(w)
}

func writeTable(w io.Writer, rows []InspectRow) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Key", "Size", "Detail"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	for _, row := range rows {
		table.Append([]string{row.Key, strconv.Itoa(row.Size), row.Detail})
	}
	table.Render()
}

// DefaultMapper shows the first bytes of the value, which for JSON records
// is enough to recognise them.
func DefaultMapper(key string, val []byte) InspectRow {
	detail := strings.ReplaceAll(string(val), "\n", " ")
	if len(detail) > 60 {
		detail = detail[:60] + "..."
	}
	return InspectRow{Key: key, Size: len(val), Detail: detail}
}
