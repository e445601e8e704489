package internal

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/ga4-analyst/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *SessionSnapshot {
	ts := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	return &SessionSnapshot{
		Messages: []Message{
			{ID: "system-welcome-1", Text: "Welcome!", Sender: SenderSystem, Timestamp: ts},
			{ID: "user-1", Text: "top pages?", Sender: SenderUser, Timestamp: ts.Add(time.Second)},
			{ID: "bot-1", Text: "See table below.", Sender: SenderBot, Timestamp: ts.Add(2 * time.Second),
				TableSpec: &TableSpec{Headers: []string{"Page"}, Rows: [][]any{{"/home"}}}},
		},
		ConnectionMode:    ModeGoogleSheet,
		IsSheetDataLoaded: true,
		SheetData: &SheetData{
			Headers: []string{"Page", "Views"},
			Rows:    []SheetRow{{"Page": "/home", "Views": 120.0}},
		},
		SheetSummary: &DataSummary{FileName: "Sheet: abc...", RowCount: 1, Headers: []string{"Page", "Views"}},
	}
}

func TestSessionStore_RoundTrip(t *testing.T) {
	store := NewSessionStore(NewSQLiteStore(testutil.CreateInMemoryDB(t), 0), "")
	snap := sampleSnapshot()
	store.Save(snap)

	got, ok := store.Load()
	require.True(t, ok)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, ModeGoogleSheet, got.ConnectionMode)
	assert.Equal(t, []Sender{SenderSystem, SenderUser, SenderBot},
		[]Sender{got.Messages[0].Sender, got.Messages[1].Sender, got.Messages[2].Sender})
	assert.True(t, got.Messages[1].Timestamp.Equal(snap.Messages[1].Timestamp))
	assert.Equal(t, 120.0, got.SheetData.Rows[0]["Views"])
	assert.Equal(t, "Sheet: abc...", got.SheetSummary.FileName)
	assert.False(t, got.SavedAt.IsZero())
}

func TestSessionStore_UsesFixedKey(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	NewSessionStore(NewSQLiteStore(db, 0), "default").Save(sampleSnapshot())

	pairs, err := QuerySessionKV(db, SessionKey)
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	var wire map[string]any
	require.NoError(t, json.Unmarshal([]byte(pairs[0].Value), &wire))
	assert.Contains(t, wire, "chatHistory")
	assert.Equal(t, "googleSheet", wire["connectionMode"])
}

func TestSessionStore_MissingRecord(t *testing.T) {
	store := NewSessionStore(NewFileStore(t.TempDir(), 0), "")
	got, ok := store.Load()
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestSessionStore_CorruptRecordIsRemoved(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"not json", "{broken"},
		{"bad sender", `{"chatHistory":[{"id":"x","sender":"alien","text":"hi"}],"connectionMode":""}`},
		{"bad mode", `{"chatHistory":[],"connectionMode":"ftp"}`},
		{"bad timestamp", `{"chatHistory":[{"id":"x","sender":"user","timestamp":"yesterday"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.CreateInMemoryDB(t)
			testutil.InsertKV(t, db, SessionKey, tt.value)
			kv := NewSQLiteStore(db, 0)

			got, ok := NewSessionStore(kv, "").Load()
			assert.False(t, ok)
			assert.Nil(t, got)

			_, present, err := kv.Get(SessionKey)
			require.NoError(t, err)
			assert.False(t, present, "corrupt record should be removed")
		})
	}
}

func TestSessionStore_QuotaFallbackKeepsSummaries(t *testing.T) {
	snap := sampleSnapshot()
	snap.SheetData.Rows = make([]SheetRow, 0, 500)
	for i := 0; i < 500; i++ {
		snap.SheetData.Rows = append(snap.SheetData.Rows, SheetRow{"Page": strings.Repeat("p", 20), "Views": float64(i)})
	}
	full, err := json.Marshal(snap)
	require.NoError(t, err)
	slim, err := json.Marshal(snap.WithoutPayloads())
	require.NoError(t, err)

	kv := NewFileStore(t.TempDir(), len(slim)+len(SessionKey)+1024)
	require.Greater(t, len(full), len(slim)+1024)

	store := NewSessionStore(kv, "")
	store.Save(snap)

	got, ok := store.Load()
	require.True(t, ok)
	assert.Nil(t, got.SheetData)
	assert.True(t, got.IsSheetDataLoaded)
	assert.Equal(t, 1, got.SheetSummary.RowCount)
	assert.Len(t, got.Messages, 3)
}

func TestSessionStore_SaveNeverPanicsOnFailure(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	kv := NewSQLiteStore(db, 0)
	require.NoError(t, db.Close())

	store := NewSessionStore(kv, "")
	store.Save(sampleSnapshot())
	got, ok := store.Load()
	assert.False(t, ok)
	assert.Nil(t, got)
	store.Clear()
}

func TestSessionKeyFor(t *testing.T) {
	assert.Equal(t, SessionKey, SessionKeyFor(""))
	assert.Equal(t, SessionKey, SessionKeyFor("default"))
	assert.Equal(t, SessionKey+":work", SessionKeyFor("work"))
	assert.Equal(t, "work", ProfileFromKey(SessionKeyFor("work")))
	assert.Equal(t, "default", ProfileFromKey(SessionKey))
}
