package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/eleven-am/videochat/internal/bootstrap"
	"github.com/eleven-am/videochat/internal/chat"
	"github.com/eleven-am/videochat/internal/vision"
)

type askOptions struct {
	Video   string
	Queries []string
	JSON    bool
}

func newLogger(cfg *bootstrap.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// runAsk runs the queries as consecutive turns about one clip without any
// session storage.
func runAsk(ctx context.Context, cfg *bootstrap.Config, opts askOptions, out, errOut io.Writer) error {
	logger := newLogger(cfg, errOut)

	registry, err := bootstrap.ProvideRegistry(cfg, logger)
	if err != nil {
		return err
	}
	backend, err := bootstrap.ProvideBackend(cfg, logger)
	if err != nil {
		return err
	}
	sampler := bootstrap.ProvideSampler(cfg, logger)

	c, err := bootstrap.NewChat(ctx, cfg, backend, sampler, registry, nil, logger)
	if err != nil {
		return err
	}

	var frames []vision.Frame
	if opts.Video != "" {
		frames, err = c.ProcessVideo(ctx, opts.Video)
		if err != nil {
			return err
		}
		logger.Info("video sampled", "path", opts.Video, "frames", len(frames))
	}

	state, err := c.NewConversation("")
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	for _, query := range opts.Queries {
		res, err := c.Generate(ctx, frames, query, state)
		if err != nil {
			return err
		}
		if err := res.Commit(); err != nil {
			return err
		}
		if err := printDelta(out, enc, opts.JSON, res.Delta); err != nil {
			return err
		}
	}
	return nil
}

func printDelta(out io.Writer, enc *json.Encoder, asJSON bool, d chat.Delta) error {
	if asJSON {
		return enc.Encode(d)
	}
	_, err := fmt.Fprintln(out, d.Reply)
	return err
}

func listTemplates(cfg *bootstrap.Config, out, errOut io.Writer) error {
	registry, err := bootstrap.ProvideRegistry(cfg, newLogger(cfg, errOut))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTYLE\tSTOP")
	for _, t := range registry.List() {
		marker := ""
		if t.Name == cfg.ConvTemplate {
			marker = " (default)"
		}
		fmt.Fprintf(w, "%s%s\t%s\t%q\n", t.Name, marker, t.Style, t.StopString())
	}
	return w.Flush()
}
