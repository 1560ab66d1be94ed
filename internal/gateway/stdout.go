package gateway

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stdout prints each message summary instead of delivering it. It exists
// for local development.
type Stdout struct {
	writer io.Writer
}

// NewStdout creates a Stdout gateway writing to w, or os.Stdout when w is nil.
func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	return &Stdout{writer: w}
}

func (s *Stdout) GetName() string  { return "stdout" }
func (s *Stdout) Hostname() string { return "localhost" }

func (s *Stdout) Send(_ context.Context, msg *Message) (*Result, error) {
	id := "stdout-" + uuid.NewString()

	var b strings.Builder
	b.WriteString("--- stdout gateway: message ---\n")
	fmt.Fprintf(&b, "ID:         %s\n", id)
	fmt.Fprintf(&b, "From:       %s\n", msg.From)
	fmt.Fprintf(&b, "Reply-To:   %s\n", msg.ReplyTo)
	fmt.Fprintf(&b, "Recipients: %d\n", len(msg.To))
	fmt.Fprintf(&b, "Subject:    %s\n", msg.Subject)
	for _, k := range sortedKeys(msg.Headers) {
		fmt.Fprintf(&b, "Header:     %s: %s\n", k, msg.Headers[k])
	}
	fmt.Fprintf(&b, "Body:       (%d bytes)\n", len(msg.HTMLBody))
	b.WriteString("--- end ---\n")

	if _, err := io.WriteString(s.writer, b.String()); err != nil {
		return nil, fmt.Errorf("stdout: write: %w", err)
	}
	return &Result{MessageID: id, Status: StatusSent, Timestamp: time.Now()}, nil
}

func (s *Stdout) HealthCheck(_ context.Context) error { return nil }

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
