package internal

import (
	"context"
	"fmt"
	"strings"
)

// SendOptions modifies a single Send call
type SendOptions struct {
	// Suggested keeps the current suggestion list, used when the question
	// was picked from it
	Suggested bool
}

// Send asks the model one question about the active dataset. The user
// message and a BOT placeholder are appended first; the placeholder is
// removed whatever the outcome and replaced by the parsed reply or a
// SYSTEM error. The returned message is the reply on success.
func (c *Controller) Send(ctx context.Context, question string, opts SendOptions) (*Message, error) {
	question = strings.TrimSpace(question)
	c.tracker.Before(ActionSend, string(c.Mode()))

	c.mu.Lock()
	ds, err := c.sendGuardLocked(question)
	if err != nil {
		c.persistLocked()
		c.unlock()
		c.tracker.After(ActionSend, "", err)
		return nil, err
	}

	c.addMessageLocked(question, SenderUser, nil, nil)
	c.setBusyLocked(true)
	c.setBannerLocked("")
	if !opts.Suggested {
		c.setSuggestionsLocked(nil)
	}
	placeholder := c.newMessage(ProcessingText, SenderBot)
	placeholder.placeholder = true
	c.appendLocked(placeholder)
	c.persistLocked()
	c.unlock()

	raw, err := c.model.Analyze(ctx, AnalysisRequest{Question: question, Dataset: ds})

	c.mu.Lock()
	c.removePlaceholderLocked(placeholder.ID)
	c.setBusyLocked(false)

	var reply *Message
	if err != nil {
		msg := err.Error()
		c.setBannerLocked("Failed to get response: " + msg)
		c.addSystemLocked(fmt.Sprintf("Error: %s. Try again or check console.", msg),
			fmt.Sprintf("error-send-%d", c.now().UnixMilli()), kindError)
	} else {
		parsed := ParseReply(raw)
		text := parsed.Text
		if strings.TrimSpace(text) == "" {
			text = EmptyReplyText
		}
		m := c.addMessageLocked(text, SenderBot, parsed.Chart, parsed.Table)
		reply = &m
	}
	c.persistLocked()
	c.unlock()

	c.tracker.After(ActionSend, string(ds.Mode), err)
	return reply, err
}

// sendGuardLocked returns the dataset to query or the reason chat is
// not available, adding the matching SYSTEM notice
func (c *Controller) sendGuardLocked(question string) (*Dataset, error) {
	if !c.configured() {
		c.addSystemLocked("Cannot send: Gemini API Key is not configured.", "error-gemini-key", kindError)
		return nil, ErrNotConfigured
	}
	if c.busy {
		return nil, ErrBusy
	}
	if question == "" {
		return nil, fmt.Errorf("question is empty: %w", ErrChatDisabled)
	}

	ds := c.datasets[c.mode]
	if ds.IsLoaded() {
		return ds, nil
	}
	switch c.mode {
	case ModeJSON:
		c.addSystemLocked("Load GA4 JSON data first.", "json-data-missing-query", kindWarning)
	case ModeGoogleSheet:
		c.addSystemLocked("Load Google Sheet data first.", "sheet-data-missing-query", kindWarning)
	case ModeGoogleDoc:
		c.addSystemLocked("Load Google Document content first.", "doc-data-missing-query", kindWarning)
	case ModeGA4:
		c.addSystemLocked("'Connect' to Google Analytics first.", "ga4-not-connected-query", kindWarning)
	default:
		c.addSystemLocked("Select a data connection mode first.", "mode-not-selected-query", kindWarning)
	}
	return nil, ErrChatDisabled
}

// removePlaceholderLocked removes the placeholder by identity: BOT
// sender, the processing text, the placeholder flag, and its id
func (c *Controller) removePlaceholderLocked(id string) {
	kept := c.messages[:0:0]
	var removed []string
	for _, m := range c.messages {
		if m.Sender == SenderBot && m.Text == ProcessingText && m.IsPlaceholder() && m.ID == id {
			removed = append(removed, m.ID)
			continue
		}
		kept = append(kept, m)
	}
	c.messages = kept
	if len(removed) > 0 {
		c.emitLocked(Event{Kind: EventMessagesRemoved, RemovedIDs: removed})
	}
}
