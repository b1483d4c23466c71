package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mark3labs/openapi-xt/internal/extensions"
	"github.com/mark3labs/openapi-xt/internal/spec"
)

// streams are the standard streams of one command invocation.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func streamsFor(cmd *cobra.Command) streams {
	return streams{in: cmd.InOrStdin(), out: cmd.OutOrStdout(), err: cmd.ErrOrStderr()}
}

// newLogger writes text records to w: debug and up when verbose, warnings
// and errors otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadDocument reads cfg.Input ("-" is stdin) and parses it.
func loadDocument(ctx context.Context, cfg *Config, s streams, logger *slog.Logger) (*spec.Document, error) {
	var (
		doc *spec.Document
		err error
	)
	if cfg.Input == "-" {
		raw, rerr := io.ReadAll(s.in)
		if rerr != nil {
			return nil, usageErrorf("read stdin: %v", rerr)
		}
		doc, err = spec.Parse(raw)
	} else {
		opts := append(cfg.loadOptions(), spec.WithLogger(logger))
		doc, err = spec.Load(ctx, cfg.Input, opts...)
	}
	if err != nil {
		return nil, specFailure(err)
	}

	logger.Debug("loaded document",
		"input", cfg.Input,
		"openapi", doc.Version(),
		"title", doc.Info.Title,
		"paths", doc.Paths.Len(),
	)
	for _, ep := range doc.Operations() {
		if bad := extensions.Malformed(ep.Operation); len(bad) > 0 {
			logger.Warn("extensions kept verbatim", "operation", ep.ID(), "keys", bad)
		}
	}
	return doc, nil
}

// specFailure maps structured spec errors into friendly usage errors.
func specFailure(err error) error {
	var se *spec.SpecError
	if !errors.As(err, &se) {
		return err
	}
	msg := se.Message
	if se.Location != "" {
		msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
	}
	if se.JSONPointer != "" {
		msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
	}
	return newUsageError(msg)
}
