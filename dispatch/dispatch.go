// Package dispatch hands a rendered prompt to a chat tool: it checks required
// fields, renders, prepends the user profile, copies the text to the clipboard
// and builds the tool's launch URL, pre-filled when short enough.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/skosovsky/promptstash"
)

// Tool is a chat web UI a prompt can be sent to.
type Tool string

// Supported tools.
const (
	ToolChatGPT Tool = "chatgpt"
	ToolClaude  Tool = "claude"
	ToolGrok    Tool = "grok"
	ToolGemini  Tool = "gemini"
)

// MaxPrefillLength is the longest encoded prompt placed in a launch URL.
const MaxPrefillLength = 2000

// Tools lists the supported tools in display order.
var Tools = []Tool{ToolChatGPT, ToolClaude, ToolGrok, ToolGemini}

// ParseTool validates a tool name (case-insensitive).
func ParseTool(s string) (Tool, error) {
	t := Tool(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case ToolChatGPT, ToolClaude, ToolGrok, ToolGemini:
		return t, nil
	default:
		return "", fmt.Errorf("dispatch: unknown tool %q", s)
	}
}

// LaunchURL returns the URL opening tool, with text pre-filled when the tool
// supports it and the encoded text is shorter than MaxPrefillLength.
func LaunchURL(tool Tool, text string) (string, bool) {
	encoded := encodeComponent(text)
	fits := len(encoded) < MaxPrefillLength
	switch tool {
	case ToolChatGPT:
		if fits {
			return "https://chatgpt.com/?q=" + encoded, true
		}
		return "https://chatgpt.com/", false
	case ToolGrok:
		if fits {
			return "https://grok.com/?q=" + encoded, true
		}
		return "https://grok.com/", false
	case ToolGemini:
		if fits {
			return "https://aistudio.google.com/prompts/new_chat?prompt=" + encoded, true
		}
		return "https://aistudio.google.com/prompts/new_chat", false
	case ToolClaude:
		return "https://claude.ai/new", false
	default:
		return "about:blank", false
	}
}

// encodeComponent percent-encodes s for a query value, spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Clipboard receives the prompt text.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard uses the OS clipboard (pbcopy, xclip/xsel/wl-copy, or the Windows API).
type SystemClipboard struct{}

// WriteAll implements Clipboard.
func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("dispatch: no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}

// ProfileSource returns the saved user profile; *prefs.Profile implements it.
type ProfileSource interface {
	Get(ctx context.Context) string
}

// Outcome is the result of a send.
type Outcome struct {
	Text      string `json:"text"`
	Tool      Tool   `json:"tool,omitempty"`
	URL       string `json:"url,omitempty"`
	Prefilled bool   `json:"prefilled"`
	Copied    bool   `json:"copied"`
	// PasteHint is set when the user has to paste manually.
	PasteHint bool `json:"pasteHint"`
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClipboard sets the clipboard. Default is none: Send skips copying.
func WithClipboard(c Clipboard) Option {
	return func(d *Dispatcher) {
		d.clipboard = c
	}
}

// WithProfile sets the profile source prepended by Prepare. Default is none.
func WithProfile(p ProfileSource) Option {
	return func(d *Dispatcher) {
		d.profile = p
	}
}

// WithTracker sets the analytics sink. Default is promptstash.NopTracker.
func WithTracker(t promptstash.Tracker) Option {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracker = t
		}
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// Dispatcher prepares and sends prompts.
type Dispatcher struct {
	clipboard Clipboard
	profile   ProfileSource
	tracker   promptstash.Tracker
	logger    *slog.Logger
}

// New creates a Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{tracker: promptstash.NopTracker{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Prepare checks required fields, renders t with values and prepends the profile.
// A missing required field returns *promptstash.MissingFieldsError.
func (d *Dispatcher) Prepare(ctx context.Context, t *promptstash.Template, values map[string]string) (string, error) {
	if err := promptstash.CheckRequired(t, values); err != nil {
		return "", err
	}
	text := promptstash.Render(t, values)
	if d.profile != nil {
		text = promptstash.PrependProfile(text, d.profile.Get(ctx))
	}
	return text, nil
}

// Copy prepares the prompt and copies it to the clipboard.
func (d *Dispatcher) Copy(ctx context.Context, t *promptstash.Template, values map[string]string) (Outcome, error) {
	out, err := d.prepareAndCopy(ctx, t, values)
	if err != nil {
		return Outcome{}, err
	}
	out.PasteHint = true
	d.tracker.Track(ctx, promptstash.EventPromptCopied, map[string]string{"template_id": t.ID})
	return out, nil
}

// Send prepares the prompt, copies it and returns the launch URL for tool.
func (d *Dispatcher) Send(ctx context.Context, t *promptstash.Template, values map[string]string, tool Tool) (Outcome, error) {
	if _, err := ParseTool(string(tool)); err != nil {
		return Outcome{}, err
	}
	out, err := d.prepareAndCopy(ctx, t, values)
	if err != nil {
		return Outcome{}, err
	}
	out.Tool = tool
	out.URL, out.Prefilled = LaunchURL(tool, out.Text)
	out.PasteHint = !out.Prefilled
	d.tracker.Track(ctx, promptstash.EventPromptSent, map[string]string{
		"template_id": t.ID,
		"provider":    string(tool),
	})
	return out, nil
}

func (d *Dispatcher) prepareAndCopy(ctx context.Context, t *promptstash.Template, values map[string]string) (Outcome, error) {
	text, err := d.Prepare(ctx, t, values)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Text: text}
	if d.clipboard != nil {
		if err := d.clipboard.WriteAll(text); err != nil {
			return Outcome{}, fmt.Errorf("dispatch: copy to clipboard: %w", err)
		}
		out.Copied = true
	}
	d.logger.Debug("prompt prepared", "template", t.ID, "bytes", len(text), "copied", out.Copied)
	return out, nil
}
