package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"code-popup/src/clipboard"
	"code-popup/src/config"
	"code-popup/src/llm"
	"code-popup/src/runtimeinit"
)

const maxInputBytes = 1 << 20

type cliOptions struct {
	text       string
	copy       bool
	jsonOutput bool
	verbose    bool
	apiKeyPath string
}

type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
	// copy writes the result to the clipboard.
	copy func(text string) error
}

func main() {
	if err := runWithArgs(os.Args, defaultStreams()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultStreams() streams {
	return streams{in: os.Stdin, out: os.Stdout, err: os.Stderr, copy: copyToClipboard}
}

func runWithArgs(args []string, s streams) error {
	if len(args) == 0 {
		args = []string{"code-popup-cli"}
	}
	opts := &cliOptions{}
	cmd := newRootCmd(opts, s)
	cmd.SetArgs(args[1:])
	cmd.SetOut(s.out)
	cmd.SetErr(s.err)
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions, s streams) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "code-popup-cli",
		Short:         "Send one prompt to Gemini and print the generated code",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()
			return runWithOptions(ctx, *opts, s)
		},
	}

	cmd.Flags().StringVarP(&opts.text, "text", "t", "", "Prompt text (use '-' or omit to read stdin)")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "Also copy the result to the clipboard")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	return cmd
}

func runWithOptions(ctx context.Context, opts cliOptions, s streams) error {
	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	cfg, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{APIKeyPathOverride: opts.apiKeyPath},
		Level:       level,
		Console:     opts.verbose,
	})
	if err != nil {
		return err
	}

	text, err := readInput(opts.text, s.in)
	if err != nil {
		return err
	}

	client := llm.New(llm.Config{
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		Endpoint: cfg.Endpoint,
		Timeout:  cfg.RequestTimeout,
	})

	started := time.Now()
	result, err := client.Generate(ctx, llm.BuildPrompt(text))
	elapsed := time.Since(started)
	if err != nil {
		log.Debug().Err(err).Dur("took", elapsed).Msg("generate failed")
		return fmt.Errorf("generation failed: %w", err)
	}
	log.Debug().Dur("took", elapsed).Int("chars", len(result)).Msg("generate completed")

	if opts.copy {
		if err := s.copy(result); err != nil {
			return fmt.Errorf("failed to write to clipboard: %w", err)
		}
	}
	return outputResult(s.out, result, cfg.Model, elapsed, opts.jsonOutput)
}

func readInput(flagText string, stdin io.Reader) (string, error) {
	text := flagText
	if text == "" || text == "-" {
		data, err := io.ReadAll(io.LimitReader(stdin, maxInputBytes+1))
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		if len(data) > maxInputBytes {
			return "", fmt.Errorf("input exceeds maximum size of %d bytes", maxInputBytes)
		}
		text = string(data)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("no input text")
	}
	return text, nil
}

type Result struct {
	Text      string  `json:"text"`
	Model     string  `json:"model"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
	CharCount int     `json:"character_count"`
}

func outputResult(w io.Writer, text, model string, elapsed time.Duration, jsonOutput bool) error {
	if !jsonOutput {
		_, err := fmt.Fprint(w, text)
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(Result{
		Text:      text,
		Model:     model,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Duration:  elapsed.Seconds(),
		CharCount: len(text),
	}); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

func copyToClipboard(text string) error {
	if err := clipboard.Init(); err != nil {
		return err
	}
	return clipboard.Write(text)
}
