package gateway

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultOutputDir = "./mail_output"

// File writes each message to an .eml-style file in an output directory.
// It exists for local development.
type File struct {
	outputDir string
}

// NewFile creates a File gateway. Config.Endpoint is the output directory.
func NewFile(cfg Config) *File {
	dir := cfg.Endpoint
	if dir == "" {
		dir = defaultOutputDir
	}
	return &File{outputDir: dir}
}

func (f *File) GetName() string  { return "file" }
func (f *File) Hostname() string { return "localhost" }

// Send writes <timestamp>_<id>.eml and reports its path in the metadata.
func (f *File) Send(_ context.Context, msg *Message) (*Result, error) {
	if err := os.MkdirAll(f.outputDir, 0o750); err != nil {
		return nil, fmt.Errorf("file: create output dir: %w", err)
	}

	id := uuid.NewString()
	path := filepath.Join(f.outputDir, fmt.Sprintf("%s_%s.eml", time.Now().Format("20060102_150405"), id))

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", msg.From)
	fmt.Fprintf(&b, "To: %s\n", strings.Join(msg.To, ", "))
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\n", msg.ReplyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	for _, k := range sortedKeys(msg.Headers) {
		fmt.Fprintf(&b, "%s: %s\n", k, msg.Headers[k])
	}
	b.WriteString("Content-Type: text/html; charset=UTF-8\n\n")
	b.WriteString(msg.HTMLBody)

	if err := os.WriteFile(path, []byte(b.String()), 0o640); err != nil {
		return nil, fmt.Errorf("file: write %s: %w", path, err)
	}

	return &Result{
		MessageID: "file-" + id,
		Status:    StatusSent,
		Timestamp: time.Now(),
		Metadata:  map[string]string{"path": path},
	}, nil
}

// HealthCheck verifies the output directory is writable.
func (f *File) HealthCheck(_ context.Context) error {
	if err := os.MkdirAll(f.outputDir, 0o750); err != nil {
		return fmt.Errorf("file: output dir not writable: %w", err)
	}
	return nil
}
