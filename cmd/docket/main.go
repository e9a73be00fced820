// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/docket"
	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/gateway"
	"github.com/poiesic/docket/retry"
	"github.com/poiesic/docket/server"
	"github.com/urfave/cli/v2"
)

//go:embed fixtures/tweets.json
var sampleTweets []byte

const displayDateName = "displayDate"

const displayDateBody = `function displayDate(inputDate) {
    return inputDate.split('T')[0];
}`

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func retryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum attempts when the store is unavailable",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 1 * time.Second,
		},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docket",
		Usage: "Validate and store JSON documents with optimistic versioning",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (empty keeps data in memory)",
			},
			&cli.StringFlag{
				Name:  "database",
				Usage: "Database name",
				Value: docket.DefaultDatabase,
			},
			&cli.StringFlag{
				Name:    "collection",
				Aliases: []string{"c"},
				Usage:   "Collection name",
				Value:   docket.DefaultCollection,
			},
			&cli.StringFlag{
				Name:  "key-file",
				Usage: "File holding a raw 16, 24 or 32 byte encryption key",
			},
			&cli.BoolFlag{
				Name:  "no-functions",
				Usage: "Do not register the built-in displayDate function",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "submit",
				Usage:     "Store a JSON document; an _etag member makes the write conditional",
				ArgsUsage: "[json]",
				Action:    submitCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Read the document from a file instead of the argument or stdin",
					},
				}, retryFlags()...),
			},
			{
				Name:      "get",
				Usage:     "Print a stored document",
				ArgsUsage: "<id>",
				Action:    getCommand,
				Flags:     retryFlags(),
			},
			{
				Name:   "seed",
				Usage:  "Upsert every document of a JSON array fixture",
				Action: seedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "JSON array fixture (default: bundled sample tweets)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of documents written concurrently",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 10,
					},
				},
			},
			{
				Name:   "collections",
				Usage:  "List the collections of the database",
				Action: collectionsCommand,
			},
			{
				Name:   "functions",
				Usage:  "List the functions registered on the collection",
				Action: functionsCommand,
			},
			{
				Name:   "serve",
				Usage:  "Serve the document gateway over HTTP",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: ":8080",
					},
				},
			},
		},
	}
}

// newClient builds a client from the global flags.
func newClient(c *cli.Context, extra ...docket.Option) (*docket.Client, error) {
	opts := []docket.Option{
		docket.WithPath(c.String("db")),
		docket.WithDatabase(c.String("database")),
		docket.WithCollection(c.String("collection")),
		docket.WithLogger(slog.Default()),
	}

	if keyFile := c.String("key-file"); keyFile != "" {
		key, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
		opts = append(opts, docket.WithEncryptionKey(key))
	}

	if !c.Bool("no-functions") {
		opts = append(opts, docket.WithFunction(displayDateName, displayDateBody))
	}

	client, err := docket.NewClient(append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return client, nil
}

func retryPolicy(c *cli.Context) (retry.Policy, error) {
	maxRetries := c.Int("max-retries")
	if maxRetries <= 0 {
		return retry.Policy{}, fmt.Errorf("max-retries must be greater than 0")
	}
	return retry.Policy{
		MaxAttempts: maxRetries,
		BaseDelay:   c.Duration("retry-delay"),
		Logger:      slog.Default(),
	}, nil
}

func submitCommand(c *cli.Context) error {
	input, err := readSubmission(c)
	if err != nil {
		return err
	}
	policy, err := retryPolicy(c)
	if err != nil {
		return err
	}

	client, err := newClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	gw, err := gateway.New(client, gateway.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	var res *gateway.Result
	err = retry.Do(c.Context, policy, func(ctx context.Context) error {
		var submitErr error
		res, submitErr = gw.Submit(ctx, input)
		return submitErr
	})
	if err != nil {
		var submitErr *gateway.SubmitError
		if errors.As(err, &submitErr) {
			fmt.Fprintln(c.App.ErrWriter, submitErr.Message)
			fmt.Fprintln(c.App.ErrWriter, submitErr.Input)
		}
		return fmt.Errorf("submit failed: %w", err)
	}

	fmt.Fprintln(c.App.ErrWriter, res.Message)
	fmt.Fprintln(c.App.Writer, res.Formatted)
	return nil
}

// readSubmission takes the document from --file, the first argument, or
// stdin, in that order.
func readSubmission(c *cli.Context) (string, error) {
	if file := c.String("file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	}
	if c.Args().Present() {
		return c.Args().First(), nil
	}
	data, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func getCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("document id is required")
	}
	policy, err := retryPolicy(c)
	if err != nil {
		return err
	}

	client, err := newClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	var doc *core.Document
	err = retry.Do(c.Context, policy, func(ctx context.Context) error {
		var getErr error
		doc, getErr = client.Get(ctx, id)
		return getErr
	})
	if err != nil {
		return fmt.Errorf("get failed: %w", err)
	}

	formatted, err := doc.MarshalIndent()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(formatted))
	return nil
}

func seedCommand(c *cli.Context) error {
	data := sampleTweets
	source := "bundled sample tweets"
	if file := c.String("file"); file != "" {
		var err error
		data, err = os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read fixture: %w", err)
		}
		source = file
	}

	docs, err := core.ParseBatch(data)
	if err != nil {
		return fmt.Errorf("invalid fixture %s: %w", source, err)
	}

	workers := c.Int("workers")
	if workers <= 0 {
		return fmt.Errorf("workers must be greater than 0")
	}
	client, err := newClient(c, docket.WithSeedWorkers(workers))
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Fprintf(c.App.ErrWriter, "Fixture: %s\n", source)
	fmt.Fprintf(c.App.ErrWriter, "Collection: %s\n", client.Collection())

	tracker := newProgressTracker(c.App.ErrWriter, len(docs), c.Int("report-interval"))
	report := client.Seed(c.Context, docs, docket.WithProgress(func(done, _ int) {
		tracker.Update(done)
	}))
	tracker.Finish()

	fmt.Fprintf(c.App.Writer, "Seeded %d documents, %d failed\n", report.Succeeded, report.Failed)
	for _, f := range report.Failures {
		fmt.Fprintf(c.App.ErrWriter, "  entry %d %s: %v\n", f.Index, f.ID, f.Err)
	}
	return nil
}

func collectionsCommand(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	names, err := client.ListCollections(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	for _, name := range names {
		fmt.Fprintln(c.App.Writer, name)
	}
	return nil
}

func functionsCommand(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	fns, err := client.ListFunctions(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list functions: %w", err)
	}
	for _, fn := range fns {
		fmt.Fprintln(c.App.Writer, fn.Name)
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.EnsureReady(ctx); err != nil {
		return fmt.Errorf("failed to provision store: %w", err)
	}

	srv, err := server.New(client, server.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, c.String("addr"))
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
