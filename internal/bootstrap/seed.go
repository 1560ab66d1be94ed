package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/sungwon/campaign-dispatch/internal/segment"
)

// SubscriberUpserter stores a subscriber keyed by email.
type SubscriberUpserter interface {
	Upsert(ctx context.Context, sub *segment.Subscriber) error
}

// SeedSubscribers loads a JSON array of subscriber snapshots from r,
// assigns their groups with classifier and upserts them by email. It is
// idempotent and safe to run on every startup. Records without an email
// are skipped.
func SeedSubscribers(ctx context.Context, store SubscriberUpserter, classifier *segment.Classifier, r io.Reader, log zerolog.Logger) (int, error) {
	var subs []segment.Subscriber
	if err := json.NewDecoder(r).Decode(&subs); err != nil {
		return 0, fmt.Errorf("decode seed subscribers: %w", err)
	}

	seeded := 0
	for i := range subs {
		if subs[i].Email == "" {
			log.Warn().Int("index", i).Msg("skipping seed subscriber without email")
			continue
		}
		sub := classifier.Regroup(subs[i])
		if err := store.Upsert(ctx, &sub); err != nil {
			return seeded, fmt.Errorf("upsert %s: %w", sub.Email, err)
		}
		seeded++
	}

	log.Info().Int("seeded", seeded).Int("total", len(subs)).Msg("subscribers seeded")
	return seeded, nil
}

// SeedSubscribersFile runs SeedSubscribers over the file at path. An empty
// path is a no-op.
func SeedSubscribersFile(ctx context.Context, store SubscriberUpserter, classifier *segment.Classifier, path string, log zerolog.Logger) (int, error) {
	if path == "" {
		return 0, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return SeedSubscribers(ctx, store, classifier, f, log)
}
