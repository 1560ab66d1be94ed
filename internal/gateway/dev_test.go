package gateway

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
)

func TestStdout_Send(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdout(&buf)

	res, err := s.Send(context.Background(), testMessage())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(res.MessageID, "stdout-") {
		t.Errorf("MessageID = %q", res.MessageID)
	}
	out := buf.String()
	for _, want := range []string{"Subject:    October update", "Recipients: 2", "Header:     Precedence: bulk"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFile_Send(t *testing.T) {
	dir := t.TempDir()
	f := NewFile(Config{Endpoint: dir})

	res, err := f.Send(context.Background(), testMessage())
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(res.Metadata["path"])
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{
		"To: a@example.com, b@example.com",
		"Reply-To: support@acme.test",
		"X-Campaign-ID: camp-1",
		"<p>Hello</p>",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("file missing %q", want)
		}
	}
	if err := f.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}
