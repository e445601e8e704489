package internal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestShowProgress(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		message string
		fn      func(context.Context) error
		wantErr bool
	}{
		{
			name:    "successful function",
			message: "Loading sheet",
			fn: func(context.Context) error {
				return nil
			},
			wantErr: false,
		},
		{
			name:    "function with error",
			message: "Loading sheet",
			fn: func(context.Context) error {
				return errors.New("fetch failed")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ShowProgress(ctx, tt.message, tt.fn)
			if (err != nil) != tt.wantErr {
				t.Errorf("ShowProgress() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShowProgress_PassesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ShowProgress(ctx, "Asking", func(ctx context.Context) error {
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ShowProgress() error = %v, want context.Canceled", err)
	}
}

func TestSpin(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(context.Context) error
		wantMark string
		wantErr  bool
	}{
		{
			name: "success mark",
			fn: func(context.Context) error {
				time.Sleep(15 * time.Millisecond)
				return nil
			},
			wantMark: "✓ Connecting",
		},
		{
			name:     "failure mark",
			fn:       func(context.Context) error { return errors.New("denied") },
			wantMark: "✗ Connecting",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := spin(context.Background(), &buf, "Connecting", 5*time.Millisecond, tt.fn)
			if (err != nil) != tt.wantErr {
				t.Fatalf("spin() error = %v, wantErr %v", err, tt.wantErr)
			}
			out := buf.String()
			if !strings.Contains(out, tt.wantMark) {
				t.Errorf("spin() output = %q, want %q", out, tt.wantMark)
			}
			if !strings.HasSuffix(out, "\n") {
				t.Errorf("spin() output should end with a newline: %q", out)
			}
		})
	}
}

func TestShowProgressWithSteps(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		steps   []ProgressStep
		wantErr string
	}{
		{
			name: "successful steps",
			steps: []ProgressStep{
				{Message: "Opening store", Fn: func(context.Context) error { return nil }},
				{Message: "Restoring session", Fn: func(context.Context) error { return nil }},
			},
		},
		{
			name: "step with error",
			steps: []ProgressStep{
				{Message: "Opening store", Fn: func(context.Context) error { return nil }},
				{Message: "Restoring session", Fn: func(context.Context) error { return errors.New("corrupt") }},
			},
			wantErr: "Restoring session: corrupt",
		},
		{
			name:  "empty steps",
			steps: []ProgressStep{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ShowProgressWithSteps(ctx, tt.steps)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ShowProgressWithSteps() error = %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("ShowProgressWithSteps() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestShowProgress_LogsMessageVerbatim(t *testing.T) {
	originalLevel, originalLogger := logLevel, logger
	defer func() {
		logLevel = originalLevel
		logger = originalLogger
	}()

	var logs bytes.Buffer
	SetLogOutput(&logs)
	SetLogLevel(LogLevelInfo)

	var out bytes.Buffer
	if err := showProgress(context.Background(), &out, "Growth 100% vs %d", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("showProgress() error = %v", err)
	}
	if !strings.Contains(logs.String(), "Growth 100% vs %d") {
		t.Errorf("log = %q, want message verbatim", logs.String())
	}
}
