package testutil

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// SampleCSV is a small public-sheet export with a quoted cell
const SampleCSV = "Page,Views,Country\n/home,120,US\n\"/pricing, plans\",45,\"DE\"\n/blog,,FR\n"

// SampleDoc is a small document export
const SampleDoc = "Quarterly report\n\nTraffic grew 12% quarter over quarter."

// ChartReply is a model reply carrying a chart payload
const ChartReply = "Traffic by page:\n// GEMINI_CHART_DATA_START\n" +
	`{"type":"bar","data":{"labels":["/home","/pricing"],"datasets":[{"label":"Views","data":[120,45]}]}}` +
	"\n// GEMINI_CHART_DATA_END\nHome leads."

// TableReply is a model reply carrying a table payload
const TableReply = "Top pages:\n// GEMINI_TABLE_DATA_START\n" +
	`{"headers":["Page","Views"],"rows":[["/home",120],["/pricing",45]]}` +
	"\n// GEMINI_TABLE_DATA_END"

// CreateSQLiteFixture creates a session database file holding one
// stored value
func CreateSQLiteFixture(t *testing.T, dbPath, key, value string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS sessionKV (
		key TEXT PRIMARY KEY,
		value TEXT,
		updated_at INTEGER NOT NULL DEFAULT 0
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	if _, err := db.Exec("INSERT INTO sessionKV (key, value, updated_at) VALUES (?, ?, 1)", key, value); err != nil {
		t.Fatalf("Failed to insert fixture: %v", err)
	}
}

// ExportServer serves fixed bodies for Google export paths. Paths not in
// routes answer 404.
func ExportServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// StatusServer answers every request with status
func StatusServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}
