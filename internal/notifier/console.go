package notifier

import (
	"context"
	"fmt"
	"html"
	"io"
	"regexp"
	"sync"
)

var htmlTag = regexp.MustCompile(`</?[a-z]+>`)

// Console writes reports to a writer, stripping Telegram HTML markup.
// It is used when no Telegram chat is configured.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console { return &Console{w: w} }

// PlainText removes the HTML markup used for Telegram.
func PlainText(text string) string {
	return html.UnescapeString(htmlTag.ReplaceAllString(text, ""))
}

func (c *Console) SendWithRetry(_ context.Context, text string, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.w, PlainText(text))
	return err
}
