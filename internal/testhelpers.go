package internal

import (
	"fmt"
	"time"
)

// testTime is the fixed clock used by snapshot fixtures
var testTime = time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)

// CreateTestSnapshot creates a sheet-mode snapshot with a question and a
// reply that carries both a chart and a table
func CreateTestSnapshot() *SessionSnapshot {
	return &SessionSnapshot{
		ConnectionMode:    ModeGoogleSheet,
		IsSheetDataLoaded: true,
		SheetData: &SheetData{
			Headers: []string{"page", "views"},
			Rows: []SheetRow{
				{"page": "/home", "views": 120.0},
				{"page": "/pricing", "views": 60.0},
			},
		},
		SheetSummary: &DataSummary{
			FileName:  "Sheet: 1AbCdEfGhIjKlMn...",
			SourceURL: "https://docs.google.com/spreadsheets/d/1AbCdEfGhIjKlMnOp/edit",
			RowCount:  2,
			Headers:   []string{"page", "views"},
		},
		Messages: []Message{
			{
				ID:        "system-1746091800000-welcome",
				Text:      "Google Sheet loaded.",
				Sender:    SenderSystem,
				Timestamp: testTime,
			},
			{
				ID:        "user-1746091801000-a",
				Text:      "Which page gets the most views?",
				Sender:    SenderUser,
				Timestamp: testTime.Add(time.Second),
			},
			{
				ID:        "bot-1746091802000-b",
				Text:      "**/home** leads with 120 views.",
				Sender:    SenderBot,
				Timestamp: testTime.Add(2 * time.Second),
				ChartSpec: &ChartSpec{
					Type: "bar",
					Data: ChartData{
						Labels:   Labels{"/home", "/pricing"},
						Datasets: []ChartDataset{{Label: "Views", Data: Series{120, 60}}},
					},
				},
				TableSpec: &TableSpec{
					Headers: []string{"Page", "Views"},
					Rows:    [][]any{{"/home", 120.0}, {"/pricing", 60.0}},
				},
			},
		},
		SavedAt: testTime.Add(3 * time.Second),
	}
}

// CreateTestSnapshotWithMessages creates a JSON-mode snapshot holding
// the given messages
func CreateTestSnapshotWithMessages(messages []Message) *SessionSnapshot {
	return &SessionSnapshot{
		ConnectionMode:   ModeJSON,
		IsJSONDataLoaded: true,
		JSONData:         []byte(`[{"page":"/home","views":120}]`),
		JSONSummary:      &DataSummary{FileName: "report.json", RowCount: 1},
		Messages:         messages,
	}
}

// CreateTestMessage creates a message with a predictable id
func CreateTestMessage(n int, sender Sender, text string) Message {
	return Message{
		ID:        fmt.Sprintf("%s-%d", sender, n),
		Text:      text,
		Sender:    sender,
		Timestamp: testTime.Add(time.Duration(n) * time.Second),
	}
}
