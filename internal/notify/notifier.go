package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/username/hurma-bot/internal/digest"
	"github.com/username/hurma-bot/pkg/dateutil"
)

// Notifier delivers a collected result
type Notifier interface {
	Notify(ctx context.Context, result *digest.Result, target dateutil.Target) error
}

// Output formats understood by StdoutNotifier
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatICS  = "ics"
)

// StdoutNotifier prints the result instead of sending it (dry runs)
type StdoutNotifier struct {
	out      io.Writer
	format   string
	renderer *Renderer
}

// NewStdoutNotifier creates a notifier writing to out in the given format
func NewStdoutNotifier(out io.Writer, format string, renderer *Renderer) (*StdoutNotifier, error) {
	switch format {
	case "", FormatText, FormatICS:
		if format == "" {
			format = FormatText
		}
		if renderer == nil {
			return nil, fmt.Errorf("%s output requires a renderer", format)
		}
	case FormatJSON:
	default:
		return nil, fmt.Errorf("unknown output format '%s' (expected text, json or ics)", format)
	}

	return &StdoutNotifier{out: out, format: format, renderer: renderer}, nil
}

// Notify writes the result
func (n *StdoutNotifier) Notify(_ context.Context, result *digest.Result, target dateutil.Target) error {
	switch n.format {
	case FormatICS:
		return n.renderer.EncodeICS(n.out, result, target, time.Now())
	case FormatJSON:
		if result == nil {
			result = &digest.Result{}
		}
		encoder := json.NewEncoder(n.out)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		return encoder.Encode(result)
	}

	text, err := n.renderer.Render(result, target)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(n.out, text)
	return err
}
