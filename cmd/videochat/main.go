package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eleven-am/videochat/internal/bootstrap"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := bootstrap.LoadConfig()

	rootCmd := &cobra.Command{
		Use:           "videochat",
		Short:         "Chat with a video language model about a clip",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfg.TemplatesFile, "templates-file", cfg.TemplatesFile, "YAML file with extra conversation templates")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newAskCmd(cfg), newTemplatesCmd(cfg))
	return rootCmd
}

func newAskCmd(cfg *bootstrap.Config) *cobra.Command {
	var opts askOptions

	askCmd := &cobra.Command{
		Use:   "ask",
		Short: "Sample a video and ask the model about it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := askCmd.Flags()
	f.StringVar(&opts.Video, "video", "", "Path to the video file")
	f.StringArrayVar(&opts.Queries, "query", nil, "Question to ask (repeat for follow-up turns)")
	f.BoolVar(&opts.JSON, "json", false, "Print each exchange as JSON")
	f.StringVar(&cfg.ConvTemplate, "template", cfg.ConvTemplate, "Conversation template")
	f.StringVar(&cfg.ModelBackend, "backend", cfg.ModelBackend, "Model backend (ollama, openai)")
	f.StringVar(&cfg.ModelPath, "model", cfg.ModelPath, "Model path or name")
	f.StringVar(&cfg.ModelBase, "model-base", cfg.ModelBase, "Base model for adapter checkpoints")
	f.BoolVar(&cfg.Load8Bit, "load-8bit", cfg.Load8Bit, "Load 8-bit quantized weights")
	f.BoolVar(&cfg.Load4Bit, "load-4bit", cfg.Load4Bit, "Load 4-bit quantized weights")
	f.StringVar(&cfg.Device, "device", cfg.Device, "Compute device (cuda, cpu, mps)")
	f.StringVar(&cfg.OllamaURL, "ollama-url", cfg.OllamaURL, "Ollama server URL")
	f.BoolVar(&cfg.OllamaPull, "pull", cfg.OllamaPull, "Pull the model when the server does not have it")
	f.StringVar(&cfg.OpenAIURL, "openai-url", cfg.OpenAIURL, "OpenAI compatible API URL")
	f.StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "ffmpeg binary")
	f.IntVar(&cfg.SampleCount, "frames", cfg.SampleCount, "Number of frames to sample")
	f.IntVar(&cfg.MaxNewTokens, "max-new-tokens", cfg.MaxNewTokens, "Generation budget")
	_ = askCmd.MarkFlagRequired("query")

	return askCmd
}

func newTemplatesCmd(cfg *bootstrap.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List conversation templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTemplates(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}
