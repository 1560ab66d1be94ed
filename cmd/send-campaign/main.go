// Package main provides a command-line sender that dispatches one campaign
// directly through a configured gateway, without the queue. It prints
// progress after every batch; Ctrl-C stops the send before the next batch.
//
// Usage:
//
//	send-campaign --subject "Spring sale" --html body.html --from-email news@shop.example --recipients list.txt
//	send-campaign --subject "Weekly" --html weekly.html --from-email news@shop.example --list weekly --gateway stdout
//	send-campaign --subject "Come back" --html winback.html --from-email news@shop.example --group lost --failed-out retry.txt
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sungwon/campaign-dispatch/internal/bootstrap"
	"github.com/sungwon/campaign-dispatch/internal/config"
	"github.com/sungwon/campaign-dispatch/internal/dispatch"
	"github.com/sungwon/campaign-dispatch/internal/gateway"
	"github.com/sungwon/campaign-dispatch/internal/logger"
	"github.com/sungwon/campaign-dispatch/internal/segment"
	"github.com/sungwon/campaign-dispatch/internal/storage"
)

type options struct {
	configDir      string
	subject        string
	htmlFile       string
	fromName       string
	fromEmail      string
	replyTo        string
	recipientsFile string
	to             stringSlice
	listID         string
	groups         stringSlice
	gatewayName    string
	failedOut      string
}

// stringSlice implements flag.Value for repeatable --to flags.
type stringSlice []string

func (s *stringSlice) String() string {
	return strings.Join(*s, ", ")
}

func (s *stringSlice) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// resolver picks the gateway for a sender.
type resolver interface {
	Resolve(ctx context.Context, senderEmail string) (gateway.Client, error)
}

func main() {
	opts := parseFlags()
	_ = godotenv.Load()

	if opts.subject == "" || opts.htmlFile == "" || opts.fromEmail == "" {
		fmt.Fprintln(os.Stderr, "error: --subject, --html and --from-email are required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(opts.configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logCfg := cfg.Logging.Logger()
	logCfg.Output = "console"
	log := logger.NewFromConfig(logCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	html, err := os.ReadFile(opts.htmlFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", opts.htmlFile).Msg("failed to read html body")
	}

	recipients, err := collectRecipients(ctx, opts, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to collect recipients")
	}

	gateways, err := bootstrap.BuildGateways(ctx, cfg.Gateway, false, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build gateways")
	}
	var r resolver = gateways.Router
	if opts.gatewayName != "" {
		named, err := gateways.Named(opts.gatewayName)
		if err != nil {
			log.Fatal().Err(err).Msg("unknown gateway")
		}
		r = named
	}
	gw, err := r.Resolve(ctx, opts.fromEmail)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve gateway")
	}

	req := &dispatch.Request{
		Subject:    opts.subject,
		HTMLBody:   string(html),
		FromName:   opts.fromName,
		FromEmail:  opts.fromEmail,
		ReplyTo:    opts.replyTo,
		Recipients: recipients,
		Progress: func(percent int) {
			fmt.Printf("  progress: %3d%%\n", percent)
		},
	}

	fmt.Printf("Campaign Sender\n")
	fmt.Printf("  Gateway:    %s\n", gw.GetName())
	fmt.Printf("  From:       %s\n", opts.fromEmail)
	fmt.Printf("  Subject:    %s\n", opts.subject)
	fmt.Printf("  Recipients: %d\n", len(recipients))
	fmt.Println()

	outcome, err := dispatch.New(cfg.Dispatch.Dispatcher()).Dispatch(ctx, gw, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	fmt.Println()
	printOutcome(os.Stdout, outcome)

	if opts.failedOut != "" && !outcome.Success {
		if err := saveFailed(opts.failedOut, outcome); err != nil {
			log.Error().Err(err).Str("file", opts.failedOut).Msg("failed to write undelivered recipients")
		} else {
			fmt.Printf("  Undelivered recipients written to %s\n", opts.failedOut)
		}
	}

	if !outcome.Success {
		os.Exit(1)
	}
}

func parseFlags() options {
	var opts options

	flag.StringVar(&opts.configDir, "config", "config", "Directory containing config.yaml")
	flag.StringVar(&opts.subject, "subject", "", "Campaign subject")
	flag.StringVar(&opts.htmlFile, "html", "", "File holding the HTML body")
	flag.StringVar(&opts.fromName, "from-name", "", "Sender display name")
	flag.StringVar(&opts.fromEmail, "from-email", "", "Sender email address")
	flag.StringVar(&opts.replyTo, "reply-to", "", "Reply-To address")
	flag.StringVar(&opts.recipientsFile, "recipients", "", "File with one recipient address per line")
	flag.Var(&opts.to, "to", "Recipient email address (can be specified multiple times)")
	flag.StringVar(&opts.listID, "list", "", "Send to active subscribers of this list (reads the database)")
	flag.Var(&opts.groups, "group", "Only subscribers in this segment group (can be specified multiple times; reads the database)")
	flag.StringVar(&opts.gatewayName, "gateway", "", "Gateway name to use instead of routing")
	flag.StringVar(&opts.failedOut, "failed-out", "", "Write undelivered recipients to this file, one per line")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: send-campaign [options]\n\n")
		fmt.Fprintf(os.Stderr, "Dispatches one campaign in paced batches through a configured gateway.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  send-campaign --subject Hi --html body.html --from-email news@shop.example --to a@example.com\n")
		fmt.Fprintf(os.Stderr, "  send-campaign --subject Hi --html body.html --from-email news@shop.example --recipients list.txt\n")
		fmt.Fprintf(os.Stderr, "  send-campaign --subject Hi --html body.html --from-email news@shop.example --list weekly --gateway stdout\n")
	}

	flag.Parse()
	return opts
}

// collectRecipients merges --to, --recipients and the database selection
// (--list and --group) in that order, dropping repeated addresses.
func collectRecipients(ctx context.Context, opts options, db storage.PoolConfig) ([]string, error) {
	all := append([]string(nil), opts.to...)

	if opts.recipientsFile != "" {
		f, err := os.Open(opts.recipientsFile)
		if err != nil {
			return nil, fmt.Errorf("open recipients file: %w", err)
		}
		defer f.Close()
		fromFile, err := readRecipients(f)
		if err != nil {
			return nil, fmt.Errorf("read recipients file: %w", err)
		}
		all = append(all, fromFile...)
	}

	if opts.listID != "" || len(opts.groups) > 0 {
		pool, err := storage.Open(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		fromDB, err := selectRecipients(ctx, storage.NewSubscriberRepository(pool.Pool), opts.listID, opts.groups)
		if err != nil {
			return nil, err
		}
		all = append(all, fromDB...)
	}

	return dedupe(all), nil
}

// subscriberSource is the part of the subscriber repository the sender
// reads.
type subscriberSource interface {
	Recipients(ctx context.Context, listID string) ([]string, error)
	ListByList(ctx context.Context, listID string) ([]*segment.Subscriber, error)
	ListByGroups(ctx context.Context, groups []string, matchAll bool) ([]*segment.Subscriber, error)
}

// selectRecipients returns the active addresses on listID, narrowed to
// members of any of groups when groups are given.
func selectRecipients(ctx context.Context, src subscriberSource, listID string, groups []string) ([]string, error) {
	if len(groups) == 0 {
		emails, err := src.Recipients(ctx, listID)
		if err != nil {
			return nil, fmt.Errorf("load list %s: %w", listID, err)
		}
		return emails, nil
	}

	var (
		subs []*segment.Subscriber
		err  error
	)
	if listID != "" {
		subs, err = src.ListByList(ctx, listID)
		subs = segment.ByGroups(subs, groups, false)
	} else {
		subs, err = src.ListByGroups(ctx, groups, false)
	}
	if err != nil {
		return nil, fmt.Errorf("load groups %s: %w", strings.Join(groups, ","), err)
	}

	active := segment.Criteria{Statuses: []segment.Status{segment.StatusActive}}
	subs = segment.Filter(subs, active, time.Now())
	emails := make([]string, len(subs))
	for i, sub := range subs {
		emails[i] = sub.Email
	}
	return emails, nil
}

// readRecipients returns one address per non-blank line; lines starting
// with # are comments.
func readRecipients(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

func dedupe(addrs []string) []string {
	seen := make(map[string]bool, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		key := strings.ToLower(a)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// saveFailed writes the recipients of failed batches and the unattempted
// tail to path in the format --recipients reads.
func saveFailed(path string, o *dispatch.Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeRecipients(f, o.FailedRecipients()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeRecipients(w io.Writer, addrs []string) error {
	bw := bufio.NewWriter(w)
	for _, a := range addrs {
		if _, err := fmt.Fprintln(bw, a); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func printOutcome(w io.Writer, o *dispatch.Outcome) {
	status := "OK"
	switch {
	case o.Cancelled:
		status = "CANCELLED"
	case !o.Success:
		status = "PARTIAL"
	}

	fmt.Fprintf(w, "Result: %s\n", status)
	fmt.Fprintf(w, "  Campaign:    %s\n", o.CampaignID)
	fmt.Fprintf(w, "  Batches:     %d\n", o.Batches)
	fmt.Fprintf(w, "  Delivered:   %d of %d\n", o.Delivered, o.Attempted)
	if len(o.Failures) > 0 {
		fmt.Fprintf(w, "  Failed:      %d batch(es)\n", len(o.Failures))
	}
	if len(o.Unattempted) > 0 {
		fmt.Fprintf(w, "  Unattempted: %d\n", len(o.Unattempted))
	}
}
