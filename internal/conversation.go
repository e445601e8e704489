package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ConversationState is derived from the active mode and its loaded flag
type ConversationState int

const (
	StateNoModeSelected ConversationState = iota
	StateAwaitingData
	StateDataLoaded
)

func (s ConversationState) String() string {
	switch s {
	case StateAwaitingData:
		return "awaiting data"
	case StateDataLoaded:
		return "data loaded"
	default:
		return "no mode selected"
	}
}

// ProcessingText is the text of the in-flight BOT placeholder
const ProcessingText = "Processing..."

// EmptyReplyText replaces a reply that parsed to nothing
const EmptyReplyText = "Received response."

// System message texts
const (
	textKeyMissing        = "Critical: Gemini API Key (API_KEY) is not configured. The app cannot function."
	textWelcomeChart      = "Chart Feature: Try 'show me a bar chart of X by Y'. Chart generation is experimental."
	textWelcomeTable      = "Table Feature: The AI may present data in tables for clarity."
	textWelcomeSuggest    = "Suggestions Feature: After loading data, AI may suggest questions."
	textWelcomeSelectMode = "Welcome! Please choose a data source method to begin."
	textPromptJSON        = "Load GA4 JSON data with 'load json <file>' to begin."
	textPromptSheet       = "Load a public Google Sheet with 'load sheet <url>'."
	textPromptSheetEdit   = "Note: For AI analysis of Google Sheets, modification requests will be understood, but the AI will only describe the changes it *would* make as direct editing is not currently supported."
	textPromptDoc         = "Load a public Google Document with 'load doc <url>'."
	textPromptGA4         = "Run 'connect' to connect to Google Analytics (Simulated)."
	textClientIDMissing   = "GOOGLE_CLIENT_ID not set. GA4 connection is simulated."
	textDisconnected      = "Disconnected from Google Analytics (Simulated)."
	textSessionCleared    = "Session cleared. Please choose a data source method to begin."
	textSessionRestored   = "Session restored. Continue where you left off or change data source."
	textReset             = "Data connection reset. Please choose a new method."
	textSuggestLoading    = "Generating question suggestions..."
	textSuggestReady      = "AI has suggested some questions below the chat input."
	textSuggestEmpty      = "Could not generate question suggestions at this time."
	textSuggestError      = "Error generating question suggestions."
)

// systemKind only affects duplicate suppression; errors are never
// suppressed
type systemKind int

const (
	kindInfo systemKind = iota
	kindWarning
	kindError
	kindConfig
)

// ControllerOptions wires a Controller to its collaborators. Only Model
// is required.
type ControllerOptions struct {
	Model     ModelClient
	Fetcher   *Fetcher
	Analytics *SimulatedAnalytics
	Store     *SessionStore
	Tracker   Tracker
	// GoogleClientIDSet suppresses the simulated-connection warning
	GoogleClientIDSet bool
	Now               func() time.Time
}

// Controller owns the conversation and data-source state. All state is
// guarded by mu; model calls and fetches run without it.
type Controller struct {
	mu sync.Mutex

	model     ModelClient
	fetcher   *Fetcher
	analytics *SimulatedAnalytics
	store     *SessionStore
	tracker   Tracker
	clientID  bool
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	observers []Observer
	pending   []Event

	mode        ConnectionMode
	datasets    map[ConnectionMode]*Dataset
	summaries   map[ConnectionMode]*DataSummary
	messages    []Message
	suggestions []string
	banner      string
	busy        bool
	generation  uint64
}

// NewController creates a controller with an empty transcript
func NewController(opts ControllerOptions) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		model:     opts.Model,
		fetcher:   opts.Fetcher,
		analytics: opts.Analytics,
		store:     opts.Store,
		tracker:   opts.Tracker,
		clientID:  opts.GoogleClientIDSet,
		now:       opts.Now,
		ctx:       ctx,
		cancel:    cancel,
		datasets:  make(map[ConnectionMode]*Dataset),
		summaries: make(map[ConnectionMode]*DataSummary),
	}
	if c.tracker == nil {
		c.tracker = nopTracker{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.fetcher == nil {
		c.fetcher = NewFetcher(nil, DefaultFetchTTL)
	}
	if c.analytics == nil {
		c.analytics = NewSimulatedAnalytics()
	}
	return c
}

// Subscribe registers an observer for future events
func (c *Controller) Subscribe(o Observer) {
	c.mu.Lock()
	c.observers = append(c.observers, o)
	c.mu.Unlock()
}

// Close cancels background suggestion fetches and waits for them
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
}

// WaitIdle blocks until no suggestion fetch is running
func (c *Controller) WaitIdle() {
	c.wg.Wait()
}

// Start adds the configuration and welcome messages a fresh transcript
// needs. It is idempotent.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.unlock()

	if !c.configured() && !c.hasMessageIDContaining("gemini-key-error") {
		c.addSystemLocked(textKeyMissing, "gemini-key-error", kindError)
	}
	if !c.configured() {
		return
	}

	userOrBot := false
	for _, m := range c.messages {
		if m.Sender != SenderSystem {
			userOrBot = true
			break
		}
	}
	if userOrBot || c.hasMessageIDContaining("welcome-") {
		return
	}
	c.addSystemLocked(textWelcomeChart, "welcome-info-chart-"+SessionKey, kindInfo)
	c.addSystemLocked(textWelcomeTable, "welcome-info-table-"+SessionKey, kindInfo)
	c.addSystemLocked(textWelcomeSuggest, "welcome-info-suggestions-"+SessionKey, kindInfo)
	if c.mode == ModeNone {
		c.addSystemLocked(textWelcomeSelectMode, "welcome-select-mode-"+SessionKey, kindInfo)
	}
	c.persistLocked()
}

// Restore rehydrates state from the session store. With announce set it
// adds the restored notice and refreshes suggestions for a loaded
// dataset. It reports whether a stored session was found.
func (c *Controller) Restore(announce bool) bool {
	c.tracker.Before(ActionRestore, "")
	snap, ok := c.store.Load()
	if !ok {
		c.tracker.After(ActionRestore, "", nil)
		return false
	}

	c.mu.Lock()
	c.applySnapshotLocked(snap)
	c.emitLocked(Event{Kind: EventTranscriptReset})
	c.emitStateLocked()
	if announce && c.mode != ModeNone {
		c.addSystemLocked(textSessionRestored, "session-restored", kindInfo)
		if ds := c.datasets[c.mode]; ds != nil && ds.Mode != ModeGA4 {
			c.startSuggestionsLocked(ds)
		}
		c.persistLocked()
	}
	c.unlock()

	c.tracker.After(ActionRestore, string(snap.ConnectionMode), nil)
	return true
}

func (c *Controller) applySnapshotLocked(snap *SessionSnapshot) {
	c.messages = make([]Message, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		if m.Sender == SenderBot && m.Text == ProcessingText {
			continue
		}
		c.messages = append(c.messages, m)
	}
	c.mode = snap.ConnectionMode
	c.datasets = make(map[ConnectionMode]*Dataset)
	c.summaries = make(map[ConnectionMode]*DataSummary)

	restore := func(mode ConnectionMode, loaded bool, ds *Dataset, summary *DataSummary) {
		if summary != nil {
			c.summaries[mode] = summary
		}
		if !loaded {
			return
		}
		if summary != nil {
			ds.FileName = summary.FileName
		}
		if ds.IsLoaded() {
			c.datasets[mode] = ds
			return
		}
		LogWarn("Stored %s data was not kept, it must be loaded again", mode.Label())
	}
	restore(ModeJSON, snap.IsJSONDataLoaded, &Dataset{Mode: ModeJSON, JSON: snap.JSONData}, snap.JSONSummary)
	restore(ModeGoogleSheet, snap.IsSheetDataLoaded, &Dataset{Mode: ModeGoogleSheet, Sheet: snap.SheetData}, snap.SheetSummary)
	restore(ModeGoogleDoc, snap.IsDocDataLoaded, &Dataset{Mode: ModeGoogleDoc, Doc: snap.DocData}, snap.DocSummary)
	if snap.IsGA4Connected {
		user := snap.GA4User
		if user == "" {
			user = SimulatedUser
		}
		c.datasets[ModeGA4] = &Dataset{Mode: ModeGA4, User: user}
	}
}

// SelectMode activates a connection mode. Choosing a different mode
// drops every loaded dataset and restarts the awaiting state.
func (c *Controller) SelectMode(mode ConnectionMode) error {
	c.tracker.Before(ActionSelectMode, string(mode))
	c.mu.Lock()
	if c.busy {
		c.unlock()
		c.tracker.After(ActionSelectMode, string(mode), ErrBusy)
		return ErrBusy
	}
	if mode != c.mode {
		c.selectModeLocked(mode)
		c.modePromptsLocked()
		c.persistLocked()
	}
	c.unlock()
	c.tracker.After(ActionSelectMode, string(mode), nil)
	return nil
}

func (c *Controller) selectModeLocked(mode ConnectionMode) {
	c.mode = mode
	c.datasets = make(map[ConnectionMode]*Dataset)
	c.summaries = make(map[ConnectionMode]*DataSummary)
	c.generation++
	c.setSuggestionsLocked(nil)
	c.emitStateLocked()
}

// modePromptsLocked adds the hint for a mode that is waiting for data
func (c *Controller) modePromptsLocked() {
	if !c.configured() || c.loadedLocked(c.mode) {
		return
	}
	switch c.mode {
	case ModeJSON:
		c.addSystemLocked(textPromptJSON, "json-prompt", kindInfo)
	case ModeGA4:
		if !c.clientID {
			c.addSystemLocked(textClientIDMissing, "ga4-clientid-missing-warn", kindWarning)
		}
		c.addSystemLocked(textPromptGA4, "ga4-prompt", kindConfig)
	case ModeGoogleSheet:
		c.addSystemLocked(textPromptSheet, "google-sheet-prompt", kindInfo)
		c.addSystemLocked(textPromptSheetEdit, "sheet-edit-info", kindInfo)
	case ModeGoogleDoc:
		c.addSystemLocked(textPromptDoc, "google-doc-prompt", kindInfo)
	}
}

// LoadJSON validates and loads inline JSON, selecting json mode first
// when another mode is active
func (c *Controller) LoadJSON(raw []byte, fileName string) error {
	c.tracker.Before(ActionLoadData, string(ModeJSON))
	ds, err := LoadInlineJSON(raw)
	if ds != nil {
		ds.FileName = fileName
	}
	err = c.finishLoad(ModeJSON, "", ds, err)
	c.tracker.After(ActionLoadData, string(ModeJSON), err)
	return err
}

// LoadSheet fetches a public sheet and loads it, selecting sheet mode
// first when another mode is active
func (c *Controller) LoadSheet(ctx context.Context, sheetURL string) error {
	c.tracker.Before(ActionLoadData, string(ModeGoogleSheet))
	if err := c.beginLoad(); err != nil {
		c.tracker.After(ActionLoadData, string(ModeGoogleSheet), err)
		return err
	}
	ds, err := c.fetcher.LoadSheet(ctx, sheetURL)
	err = c.finishLoad(ModeGoogleSheet, sheetURL, ds, err)
	c.tracker.After(ActionLoadData, string(ModeGoogleSheet), err)
	return err
}

// LoadDoc fetches a public document and loads it, selecting doc mode
// first when another mode is active
func (c *Controller) LoadDoc(ctx context.Context, docURL string) error {
	c.tracker.Before(ActionLoadData, string(ModeGoogleDoc))
	if err := c.beginLoad(); err != nil {
		c.tracker.After(ActionLoadData, string(ModeGoogleDoc), err)
		return err
	}
	ds, err := c.fetcher.LoadDoc(ctx, docURL)
	err = c.finishLoad(ModeGoogleDoc, docURL, ds, err)
	c.tracker.After(ActionLoadData, string(ModeGoogleDoc), err)
	return err
}

func (c *Controller) beginLoad() error {
	c.mu.Lock()
	defer c.unlock()
	if c.busy {
		return ErrBusy
	}
	return nil
}

func (c *Controller) finishLoad(mode ConnectionMode, sourceURL string, ds *Dataset, loadErr error) error {
	c.mu.Lock()
	defer c.unlock()

	if c.busy {
		return ErrBusy
	}
	if c.mode != mode {
		c.selectModeLocked(mode)
	}

	if loadErr != nil {
		delete(c.datasets, mode)
		delete(c.summaries, mode)
		c.generation++
		c.setSuggestionsLocked(nil)
		c.addSystemLocked(loadErr.Error(), fmt.Sprintf("%s-error-%d", mode, c.now().UnixMilli()), kindError)
		c.emitStateLocked()
		c.persistLocked()
		return loadErr
	}

	c.datasets[mode] = ds
	c.summaries[mode] = summarize(ds, sourceURL)
	c.generation++
	c.setSuggestionsLocked(nil)
	c.setBannerLocked("")
	c.addSystemLocked(loadedText(ds), fmt.Sprintf("%s-loaded", mode), kindInfo)
	c.emitStateLocked()
	c.startSuggestionsLocked(ds)
	c.persistLocked()
	return nil
}

func loadedText(ds *Dataset) string {
	nameText := ""
	if ds.FileName != "" {
		nameText = fmt.Sprintf("from %q ", ds.FileName)
	}
	switch ds.Mode {
	case ModeGoogleSheet:
		return fmt.Sprintf("Google Sheet data %sloaded successfully (%d rows).", nameText, ds.Sheet.Len())
	case ModeGoogleDoc:
		return fmt.Sprintf("Google Document content %sloaded successfully (%d characters).", nameText, len([]rune(ds.Doc)))
	default:
		return "GA4 JSON data loaded successfully."
	}
}

func summarize(ds *Dataset, sourceURL string) *DataSummary {
	s := &DataSummary{FileName: ds.FileName, SourceURL: sourceURL}
	switch ds.Mode {
	case ModeJSON:
		s.RowCount = JSONRowCount(ds.JSON)
		s.Headers = JSONKeys(ds.JSON)
	case ModeGoogleSheet:
		s.RowCount = ds.Sheet.Len()
		s.Headers = append([]string(nil), ds.Sheet.Headers...)
	case ModeGoogleDoc:
		s.CharCount = len([]rune(ds.Doc))
	}
	return s
}

// ConnectAnalytics performs the simulated analytics handshake
func (c *Controller) ConnectAnalytics(ctx context.Context) error {
	c.tracker.Before(ActionConnect, "")
	c.mu.Lock()
	if c.busy {
		c.unlock()
		c.tracker.After(ActionConnect, "", ErrBusy)
		return ErrBusy
	}
	if c.mode != ModeGA4 {
		c.selectModeLocked(ModeGA4)
	}
	c.setBusyLocked(true)
	c.unlock()

	ds, err := c.analytics.Connect(ctx)

	c.mu.Lock()
	c.setBusyLocked(false)
	if err != nil {
		c.addSystemLocked(fmt.Sprintf("Error: %v.", err), fmt.Sprintf("ga4-error-%d", c.now().UnixMilli()), kindError)
	} else {
		c.datasets[ModeGA4] = ds
		c.generation++
		c.setSuggestionsLocked(nil)
		c.setBannerLocked("")
		c.addSystemLocked(simulatedConnectedText, "ga4-connected", kindInfo)
		c.emitStateLocked()
	}
	c.persistLocked()
	c.unlock()

	c.tracker.After(ActionConnect, "", err)
	return err
}

// DisconnectAnalytics drops the simulated connection
func (c *Controller) DisconnectAnalytics() error {
	c.tracker.Before(ActionDisconnect, "")
	c.mu.Lock()
	if c.busy {
		c.unlock()
		c.tracker.After(ActionDisconnect, "", ErrBusy)
		return ErrBusy
	}
	c.disconnectLocked()
	c.persistLocked()
	c.unlock()
	c.tracker.After(ActionDisconnect, "", nil)
	return nil
}

func (c *Controller) disconnectLocked() {
	delete(c.datasets, ModeGA4)
	c.generation++
	c.setSuggestionsLocked(nil)
	c.addSystemLocked(textDisconnected, "ga4-disconnected", kindConfig)
	c.emitStateLocked()
	if c.mode == ModeGA4 {
		c.modePromptsLocked()
	}
}

// ClearData unloads the active mode's dataset and returns it to the
// awaiting state
func (c *Controller) ClearData() error {
	c.tracker.Before(ActionClearData, string(c.Mode()))
	c.mu.Lock()
	if c.busy {
		c.unlock()
		c.tracker.After(ActionClearData, "", ErrBusy)
		return ErrBusy
	}
	mode := c.mode
	switch mode {
	case ModeGA4:
		c.disconnectLocked()
	case ModeJSON, ModeGoogleSheet, ModeGoogleDoc:
		delete(c.datasets, mode)
		delete(c.summaries, mode)
		c.generation++
		c.setSuggestionsLocked(nil)
		c.addSystemLocked(clearedText(mode), fmt.Sprintf("%s-data-cleared-manual", mode), kindConfig)
		c.emitStateLocked()
	}
	c.persistLocked()
	c.unlock()
	c.tracker.After(ActionClearData, string(mode), nil)
	return nil
}

func clearedText(mode ConnectionMode) string {
	switch mode {
	case ModeGoogleSheet:
		return "Google Sheet data cleared."
	case ModeGoogleDoc:
		return "Google Document content cleared."
	default:
		return "GA4 JSON data cleared."
	}
}

// Reset returns to mode selection. Configuration, welcome, and restore
// notices are kept; every other message is dropped.
func (c *Controller) Reset() error {
	c.tracker.Before(ActionReset, "")
	c.mu.Lock()
	if c.busy {
		c.unlock()
		c.tracker.After(ActionReset, "", ErrBusy)
		return ErrBusy
	}
	kept := c.messages[:0:0]
	for _, m := range c.messages {
		if keepOnReset(m.ID) {
			kept = append(kept, m)
		}
	}
	c.messages = kept
	c.selectModeLocked(ModeNone)
	c.setBannerLocked("")
	c.emitLocked(Event{Kind: EventTranscriptReset})
	c.addSystemLocked(textReset, "app-reset", kindConfig)
	c.persistLocked()
	c.unlock()
	c.tracker.After(ActionReset, "", nil)
	return nil
}

func keepOnReset(id string) bool {
	return strings.Contains(id, "gemini-key-error") ||
		strings.Contains(id, "welcome-info") ||
		strings.Contains(id, "table-info") ||
		strings.Contains(id, "suggestions-info") ||
		strings.HasPrefix(id, "system-session-restored")
}

// ClearSession wipes the stored session and all in-memory state
func (c *Controller) ClearSession() error {
	c.tracker.Before(ActionClearSession, "")
	c.mu.Lock()
	if c.busy {
		c.unlock()
		c.tracker.After(ActionClearSession, "", ErrBusy)
		return ErrBusy
	}
	c.store.Clear()
	c.messages = nil
	c.selectModeLocked(ModeNone)
	c.setBannerLocked("")
	c.emitLocked(Event{Kind: EventTranscriptReset})
	c.addSystemLocked(textSessionCleared, "session-cleared", kindConfig)
	c.persistLocked()
	c.unlock()
	c.tracker.After(ActionClearSession, "", nil)
	return nil
}

// RefreshSuggestions starts a new suggestion fetch for the active
// dataset. It returns ErrChatDisabled when nothing suitable is loaded.
func (c *Controller) RefreshSuggestions() error {
	c.tracker.Before(ActionSuggest, "")
	c.mu.Lock()
	ds := c.datasets[c.mode]
	var err error
	switch {
	case !c.configured():
		err = ErrNotConfigured
	case ds == nil || ds.Mode == ModeGA4:
		err = ErrChatDisabled
	default:
		c.generation++
		c.startSuggestionsLocked(ds)
		c.persistLocked()
	}
	c.unlock()
	c.tracker.After(ActionSuggest, "", err)
	return err
}

// startSuggestionsLocked clears the list and fetches new suggestions in
// the background. A result is dropped if the generation moved on.
func (c *Controller) startSuggestionsLocked(ds *Dataset) {
	if !c.configured() || ds == nil {
		return
	}
	c.setSuggestionsLocked(nil)
	gen := c.generation
	stamp := c.now().UnixMilli()
	loadingPrefix := fmt.Sprintf("system-suggest-loading-%d-", gen)
	c.addSystemLocked(textSuggestLoading, fmt.Sprintf("suggest-loading-%d", gen), kindInfo)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		questions, err := c.model.SuggestQuestions(c.ctx, SuggestionRequest{Dataset: ds})

		c.mu.Lock()
		defer c.unlock()
		c.removeByPrefixLocked(loadingPrefix)
		if gen != c.generation {
			LogDebug("Discarding suggestions from generation %d (now %d)", gen, c.generation)
			c.persistLocked()
			return
		}
		if c.ctx.Err() != nil || errors.Is(err, context.Canceled) {
			LogDebug("Suggestion fetch cancelled")
			c.persistLocked()
			return
		}
		switch {
		case err != nil:
			LogWarn("Error fetching suggested questions: %v", err)
			c.addSystemLocked(textSuggestError, fmt.Sprintf("suggest-error-%d", stamp), kindWarning)
		case len(questions) > 0:
			c.setSuggestionsLocked(questions)
			c.addSystemLocked(textSuggestReady, fmt.Sprintf("suggest-ready-%d", stamp), kindInfo)
		default:
			c.addSystemLocked(textSuggestEmpty, fmt.Sprintf("suggest-empty-%d", stamp), kindInfo)
		}
		c.persistLocked()
	}()
}

// Mode returns the active connection mode
func (c *Controller) Mode() ConnectionMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// State derives the conversation state
func (c *Controller) State() ConversationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() ConversationState {
	switch {
	case c.mode == ModeNone:
		return StateNoModeSelected
	case c.loadedLocked(c.mode):
		return StateDataLoaded
	default:
		return StateAwaitingData
	}
}

func (c *Controller) loadedLocked(mode ConnectionMode) bool {
	return c.datasets[mode].IsLoaded()
}

// ChatEnabled reports whether a question can be sent now
func (c *Controller) ChatEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.configured() && !c.busy && c.stateLocked() == StateDataLoaded
}

// Busy reports whether a query or connection is in flight
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Messages returns a copy of the transcript
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Suggestions returns the current suggested questions
func (c *Controller) Suggestions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.suggestions...)
}

// Banner returns the transient error banner, empty when none is set
func (c *Controller) Banner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.banner
}

// DismissBanner clears the error banner
func (c *Controller) DismissBanner() {
	c.mu.Lock()
	defer c.unlock()
	c.setBannerLocked("")
}

// Dataset returns the loaded dataset for the active mode, or nil
func (c *Controller) Dataset() *Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.datasets[c.mode]
}

// Summary returns the summary kept for mode, or nil
func (c *Controller) Summary(mode ConnectionMode) *DataSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s := c.summaries[mode]; s != nil {
		cp := *s
		return &cp
	}
	return nil
}

// Snapshot projects the state for persistence. The in-flight placeholder
// is never included.
func (c *Controller) Snapshot() *SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() *SessionSnapshot {
	snap := &SessionSnapshot{ConnectionMode: c.mode}
	snap.Messages = make([]Message, 0, len(c.messages))
	for _, m := range c.messages {
		if !m.IsPlaceholder() {
			snap.Messages = append(snap.Messages, m)
		}
	}
	// Summaries outlive their payloads so a dropped dataset can still be described
	snap.JSONSummary = c.summaries[ModeJSON]
	snap.SheetSummary = c.summaries[ModeGoogleSheet]
	snap.DocSummary = c.summaries[ModeGoogleDoc]
	if ds := c.datasets[ModeJSON]; ds.IsLoaded() {
		snap.IsJSONDataLoaded = true
		snap.JSONData = ds.JSON
	}
	if ds := c.datasets[ModeGoogleSheet]; ds.IsLoaded() {
		snap.IsSheetDataLoaded = true
		snap.SheetData = ds.Sheet
	}
	if ds := c.datasets[ModeGoogleDoc]; ds.IsLoaded() {
		snap.IsDocDataLoaded = true
		snap.DocData = ds.Doc
	}
	if ds := c.datasets[ModeGA4]; ds != nil {
		snap.IsGA4Connected = true
		snap.GA4User = ds.User
	}
	return snap
}

func (c *Controller) persistLocked() {
	if c.store == nil {
		return
	}
	c.store.Save(c.snapshotLocked())
	c.emitLocked(Event{Kind: EventSessionPersisted})
}

func (c *Controller) configured() bool {
	return c.model != nil && c.model.IsConfigured()
}

func (c *Controller) hasMessageIDContaining(part string) bool {
	for _, m := range c.messages {
		if strings.Contains(m.ID, part) {
			return true
		}
	}
	return false
}

func (c *Controller) newMessage(text string, sender Sender) Message {
	now := c.now()
	return Message{
		ID:        fmt.Sprintf("%s-%d-%s", sender, now.UnixMilli(), uuid.NewString()),
		Text:      text,
		Sender:    sender,
		Timestamp: now,
	}
}

func (c *Controller) addMessageLocked(text string, sender Sender, chart *ChartSpec, table *TableSpec) Message {
	m := c.newMessage(text, sender)
	m.ChartSpec = chart
	m.TableSpec = table
	c.appendLocked(m)
	return m
}

func (c *Controller) appendLocked(m Message) {
	c.messages = append(c.messages, m)
	cp := m
	c.emitLocked(Event{Kind: EventMessageAdded, Message: &cp})
}

// addSystemLocked appends a SYSTEM message unless the previous message
// is a SYSTEM message with the same text. Errors and thinking notices
// are always appended.
func (c *Controller) addSystemLocked(text, idSuffix string, kind systemKind) {
	if n := len(c.messages); n > 0 {
		last := c.messages[n-1]
		if last.Sender == SenderSystem && last.Text == text &&
			!strings.HasPrefix(idSuffix, "thinking") && kind != kindError {
			return
		}
	}
	now := c.now()
	c.appendLocked(Message{
		ID:        fmt.Sprintf("system-%s-%d", idSuffix, now.UnixMilli()),
		Text:      text,
		Sender:    SenderSystem,
		Timestamp: now,
	})
}

func (c *Controller) removeByPrefixLocked(prefix string) {
	var removed []string
	kept := c.messages[:0:0]
	for _, m := range c.messages {
		if strings.HasPrefix(m.ID, prefix) {
			removed = append(removed, m.ID)
			continue
		}
		kept = append(kept, m)
	}
	if len(removed) == 0 {
		return
	}
	c.messages = kept
	c.emitLocked(Event{Kind: EventMessagesRemoved, RemovedIDs: removed})
}

func (c *Controller) setSuggestionsLocked(questions []string) {
	if len(questions) == 0 && len(c.suggestions) == 0 {
		return
	}
	c.suggestions = append([]string(nil), questions...)
	c.emitLocked(Event{Kind: EventSuggestions, Suggestions: append([]string(nil), questions...)})
}

func (c *Controller) setBannerLocked(banner string) {
	if c.banner == banner {
		return
	}
	c.banner = banner
	c.emitLocked(Event{Kind: EventBanner, Banner: banner})
}

func (c *Controller) setBusyLocked(busy bool) {
	c.busy = busy
	c.emitLocked(Event{Kind: EventBusy, Busy: busy})
}

func (c *Controller) emitStateLocked() {
	c.emitLocked(Event{Kind: EventStateChanged, State: c.stateLocked(), Mode: c.mode})
}

func (c *Controller) emitLocked(e Event) {
	if len(c.observers) == 0 {
		return
	}
	e.At = c.now()
	c.pending = append(c.pending, e)
}

// unlock releases mu and delivers queued events outside the lock
func (c *Controller) unlock() {
	events := c.pending
	c.pending = nil
	observers := c.observers
	c.mu.Unlock()
	for _, e := range events {
		for _, o := range observers {
			o.OnEvent(e)
		}
	}
}
