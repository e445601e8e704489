package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/ga4-analyst/internal"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

const chatHelp = `Type a question to ask about the loaded data, or a command:
  /mode <json|sheet|doc|ga4>   select the data source
  /load json <file>            load GA4 JSON data
  /load sheet <url>            load a public Google Sheet
  /load doc <url>              load a public Google Document
  /connect, /disconnect        simulated Google Analytics connection
  /suggest                     fetch suggested questions
  /1 .. /4                     ask a suggested question
  /history                     show the transcript
  /clear                       clear the active dataset
  /reset                       return to data source selection
  /quit                        leave the chat`

var promptStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("62")).
	Bold(true)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Start an interactive conversation about the loaded data. The previous
session is restored. Type /help for the available commands.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		a, err := openApp(appOptions{announce: true, out: out})
		if err != nil {
			return err
		}
		defer a.Close()

		prompt := newPrompt(filepath.Join(a.paths.BasePath, "chat_history"))
		defer prompt.Close()

		fmt.Fprintf(out, "GA4 AI Analyst %s. Type /help for commands or /quit to leave.\n\n", version)
		return runChat(cmd.Context(), a, prompt, out)
	},
}

// lineReader reads one line of user input
type lineReader interface {
	Prompt(prompt string) (string, error)
}

type promptCloser interface {
	lineReader
	Close()
}

// newPrompt opens the interactive prompt. Tests replace it with a
// scripted reader.
var newPrompt = func(historyFile string) promptCloser {
	return newChatPrompt(historyFile)
}

// chatPrompt is a liner-backed prompt with persistent history
type chatPrompt struct {
	line        *liner.State
	historyFile string
}

func newChatPrompt(historyFile string) *chatPrompt {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	p := &chatPrompt{line: line, historyFile: historyFile}
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}
	return p
}

// Prompt reads a line and records non-empty input in the history
func (p *chatPrompt) Prompt(prompt string) (string, error) {
	input, err := p.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		p.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history and restores the terminal
func (p *chatPrompt) Close() {
	if f, err := os.OpenFile(p.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
		_, _ = p.line.WriteHistory(f)
		_ = f.Close()
	}
	_ = p.line.Close()
}

// runChat reads lines until /quit, end of input, or Ctrl+C
func runChat(ctx context.Context, a *app, in lineReader, out io.Writer) error {
	label := "ga4> "
	if internal.IsTerminal() {
		label = promptStyle.Render("ga4>") + " "
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		input, err := in.Prompt(label)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		quit, err := handleChatLine(ctx, a, strings.TrimSpace(input), out)
		if err != nil && !reportedByController(err) {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// handleChatLine runs one line of input. It reports whether the chat
// should end.
func handleChatLine(ctx context.Context, a *app, line string, out io.Writer) (bool, error) {
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, "/") {
		return false, ask(ctx, a, line, false)
	}

	fields := strings.Fields(line)
	command, rest := fields[0], fields[1:]
	switch command {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(out, chatHelp)
	case "/history":
		if a.renderer != nil {
			a.renderer.RenderTranscript(a.ctrl.Messages())
		}
	case "/mode":
		if len(rest) != 1 {
			return false, errors.New("usage: /mode <json|sheet|doc|ga4>")
		}
		mode, err := internal.ParseConnectionMode(rest[0])
		if err != nil {
			return false, err
		}
		return false, a.ctrl.SelectMode(mode)
	case "/load":
		return false, chatLoad(ctx, a, rest)
	case "/connect":
		return false, internal.ShowProgress(ctx, "Connecting to Google Analytics", a.ctrl.ConnectAnalytics)
	case "/disconnect":
		return false, a.ctrl.DisconnectAnalytics()
	case "/suggest":
		if err := a.ctrl.RefreshSuggestions(); err != nil {
			return false, err
		}
		a.waitForSuggestions()
	case "/clear":
		return false, a.ctrl.ClearData()
	case "/reset":
		return false, a.ctrl.Reset()
	default:
		n, err := strconv.Atoi(strings.TrimPrefix(command, "/"))
		if err != nil {
			return false, fmt.Errorf("unknown command %s (type /help)", command)
		}
		suggestions := a.ctrl.Suggestions()
		if n < 1 || n > len(suggestions) {
			return false, fmt.Errorf("no suggested question %d", n)
		}
		return false, ask(ctx, a, suggestions[n-1], true)
	}
	return false, nil
}

func chatLoad(ctx context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: /load <json|sheet|doc> <file|url>")
	}
	switch args[0] {
	case "json":
		if args[1] == "-" {
			// the line editor owns stdin for the whole session
			return errors.New("/load json needs a file path; stdin is not available inside chat")
		}
		raw, name, err := readJSONInput(os.Stdin, args[1])
		if err != nil {
			return err
		}
		return a.ctrl.LoadJSON(raw, name)
	case "sheet":
		return internal.ShowProgress(ctx, "Fetching Google Sheet", func(ctx context.Context) error {
			return a.ctrl.LoadSheet(ctx, args[1])
		})
	case "doc":
		return internal.ShowProgress(ctx, "Fetching Google Document", func(ctx context.Context) error {
			return a.ctrl.LoadDoc(ctx, args[1])
		})
	default:
		return fmt.Errorf("unknown source %s (supported: json, sheet, doc)", args[0])
	}
}

func ask(ctx context.Context, a *app, question string, suggested bool) error {
	return internal.ShowProgress(ctx, "Analyzing", func(ctx context.Context) error {
		_, err := a.ctrl.Send(ctx, question, internal.SendOptions{Suggested: suggested})
		return err
	})
}

// reportedByController reports whether the controller already added a
// SYSTEM message for err
func reportedByController(err error) bool {
	var loadErr *internal.DataLoadError
	var modelErr *internal.ModelError
	return errors.Is(err, internal.ErrNotConfigured) ||
		errors.Is(err, internal.ErrChatDisabled) ||
		errors.As(err, &loadErr) ||
		errors.As(err, &modelErr)
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
