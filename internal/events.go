package internal

import "time"

// EventKind names a conversation change observers can react to
type EventKind string

const (
	EventMessageAdded     EventKind = "message_added"
	EventMessagesRemoved  EventKind = "messages_removed"
	EventStateChanged     EventKind = "state_changed"
	EventSuggestions      EventKind = "suggestions"
	EventBanner           EventKind = "banner"
	EventBusy             EventKind = "busy"
	EventTranscriptReset  EventKind = "transcript_reset"
	EventSessionPersisted EventKind = "session_persisted"
)

// Event describes one change to the conversation. Only the fields that
// belong to Kind are set.
type Event struct {
	Kind        EventKind
	Message     *Message
	RemovedIDs  []string
	State       ConversationState
	Mode        ConnectionMode
	Suggestions []string
	Banner      string
	Busy        bool
	At          time.Time
}

// Observer receives conversation events. Events are delivered after the
// controller releases its lock, possibly from the suggestion goroutine.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Event)

// OnEvent calls f
func (f ObserverFunc) OnEvent(e Event) {
	f(e)
}

// Action names a user-level transition for analytics tracking
type Action string

const (
	ActionSelectMode   Action = "select_mode"
	ActionLoadData     Action = "load_data"
	ActionConnect      Action = "connect_analytics"
	ActionDisconnect   Action = "disconnect_analytics"
	ActionClearData    Action = "clear_data"
	ActionReset        Action = "reset"
	ActionClearSession Action = "clear_session"
	ActionSend         Action = "send_message"
	ActionSuggest      Action = "suggest_questions"
	ActionRestore      Action = "restore_session"
)

// Tracker is told about every transition before and after it runs
type Tracker interface {
	Before(action Action, detail string)
	After(action Action, detail string, err error)
}

type nopTracker struct{}

func (nopTracker) Before(Action, string)        {}
func (nopTracker) After(Action, string, error) {}

// LogTracker records transitions in the debug log
type LogTracker struct{}

// Before logs the start of a transition
func (LogTracker) Before(action Action, detail string) {
	LogDebug("track: %s started %s", action, detail)
}

// After logs the outcome of a transition
func (LogTracker) After(action Action, detail string, err error) {
	if err != nil {
		LogDebug("track: %s failed %s: %v", action, detail, err)
		return
	}
	LogDebug("track: %s done %s", action, detail)
}
