package cmd

import (
	"io"

	"github.com/iksnae/ga4-analyst/internal"
	"github.com/spf13/viper"
)

// Collaborator constructors. Tests replace them to avoid the network.
var (
	newModelClient = func(apiKey, model string) internal.ModelClient {
		return internal.NewGeminiClient(apiKey, model)
	}
	newFetcher = func() *internal.Fetcher {
		return internal.NewFetcher(nil, internal.DefaultFetchTTL)
	}
	newAnalytics = internal.NewSimulatedAnalytics
)

// app is the per-command wiring of store, controller, and renderer
type app struct {
	paths    internal.DataPaths
	kv       internal.KVStore
	store    *internal.SessionStore
	ctrl     *internal.Controller
	renderer *internal.TranscriptRenderer
}

type appOptions struct {
	// announce adds the restored notice and refreshes suggestions
	announce bool
	// out receives live transcript output; nil disables it
	out io.Writer
	// inspect leaves the stored session untouched: no welcome messages
	inspect bool
}

// openApp opens the session store and restores the saved conversation.
// Messages added from then on are rendered to opts.out.
func openApp(opts appOptions) (*app, error) {
	paths, err := internal.DetectDataPaths(viper.GetString("data-dir"))
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureStoreDir(); err != nil {
		return nil, &internal.StorageError{Path: paths.StoreDir, Op: "open", Err: err}
	}

	kv, err := internal.OpenStore(viper.GetString("store"), paths.StoreDir, internal.DefaultQuotaBytes)
	if err != nil {
		return nil, err
	}
	store := internal.NewSessionStore(kv, viper.GetString("session"))

	ctrl := internal.NewController(internal.ControllerOptions{
		Model:             newModelClient(resolveAPIKey(), viper.GetString("model")),
		Fetcher:           newFetcher(),
		Analytics:         newAnalytics(),
		Store:             store,
		Tracker:           internal.LogTracker{},
		GoogleClientIDSet: viper.GetString("google-client-id") != "",
	})

	a := &app{paths: paths, kv: kv, store: store, ctrl: ctrl}
	if opts.out != nil {
		a.renderer = newRenderer(opts.out, true)
		ctrl.Subscribe(a.renderer)
	}
	if restored := ctrl.Restore(opts.announce); restored {
		internal.LogDebug("Restored session %s", store.Key())
	}
	if !opts.inspect {
		ctrl.Start()
	}
	return a, nil
}

// Close stops background work and closes the store
func (a *app) Close() {
	a.ctrl.Close()
	if err := a.kv.Close(); err != nil {
		internal.LogWarn("Failed to close session store: %v", err)
	}
}

// waitForSuggestions joins a running suggestion fetch so its outcome is
// rendered before the command exits
func (a *app) waitForSuggestions() {
	a.ctrl.WaitIdle()
}

func newRenderer(w io.Writer, showSystem bool) *internal.TranscriptRenderer {
	return internal.NewTranscriptRenderer(w, internal.RenderOptions{
		Plain:      viper.GetBool("plain") || !internal.IsTerminal(),
		ShowSystem: showSystem,
	})
}
