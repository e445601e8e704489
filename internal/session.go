package internal

import (
	"encoding/json"
	"fmt"
	"time"
)

// SessionSnapshot is the persisted projection of a conversation and its
// data-source state
type SessionSnapshot struct {
	Messages       []Message      `json:"chatHistory" yaml:"messages"`
	ConnectionMode ConnectionMode `json:"connectionMode" yaml:"connection_mode"`

	IsJSONDataLoaded bool            `json:"isJsonDataLoaded" yaml:"json_loaded"`
	JSONData         json.RawMessage `json:"ga4Data,omitempty" yaml:"-"`
	JSONSummary      *DataSummary    `json:"ga4DataSummary,omitempty" yaml:"json_summary,omitempty"`

	IsSheetDataLoaded bool         `json:"isSheetDataLoaded" yaml:"sheet_loaded"`
	SheetData         *SheetData   `json:"sheetData,omitempty" yaml:"-"`
	SheetSummary      *DataSummary `json:"sheetDataSummary,omitempty" yaml:"sheet_summary,omitempty"`

	IsDocDataLoaded bool         `json:"isDocDataLoaded" yaml:"doc_loaded"`
	DocData         string       `json:"docData,omitempty" yaml:"-"`
	DocSummary      *DataSummary `json:"docDataSummary,omitempty" yaml:"doc_summary,omitempty"`

	IsGA4Connected bool   `json:"isGa4Connected" yaml:"ga4_connected"`
	GA4User        string `json:"ga4User,omitempty" yaml:"ga4_user,omitempty"`

	SavedAt time.Time `json:"savedAt,omitempty" yaml:"saved_at,omitempty"`
}

// WithoutPayloads returns a copy that keeps summaries but drops the
// full datasets
func (s *SessionSnapshot) WithoutPayloads() *SessionSnapshot {
	cp := *s
	cp.JSONData = nil
	cp.SheetData = nil
	cp.DocData = ""
	return &cp
}

// Validate checks the fields a restore depends on
func (s *SessionSnapshot) Validate() error {
	switch s.ConnectionMode {
	case ModeNone, ModeJSON, ModeGoogleSheet, ModeGoogleDoc, ModeGA4:
	default:
		return fmt.Errorf("unknown connection mode %q", s.ConnectionMode)
	}
	for i, m := range s.Messages {
		if m.ID == "" {
			return fmt.Errorf("message %d has no id", i)
		}
		switch m.Sender {
		case SenderUser, SenderBot, SenderSystem:
		default:
			return fmt.Errorf("message %s has unknown sender %q", m.ID, m.Sender)
		}
	}
	return nil
}

// CountBySender tallies transcript messages by sender
func (s *SessionSnapshot) CountBySender() map[Sender]int {
	counts := make(map[Sender]int, 3)
	for _, m := range s.Messages {
		counts[m.Sender]++
	}
	return counts
}
