package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/localrivet/docsummary"
	"github.com/localrivet/docsummary/internal/config"
	"github.com/localrivet/docsummary/internal/docservice"
	"github.com/localrivet/docsummary/internal/errortypes"
	"github.com/localrivet/docsummary/internal/extract"
	"github.com/localrivet/docsummary/internal/summarizer"
)

// Output formats of the summarize command
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func summarizeCmd() *cobra.Command {
	var opts summarizer.Options
	var detailed bool
	var mode string
	var output string

	cmd := &cobra.Command{
		Use:   "summarize <file|->",
		Short: "Summarize a text, PDF or HTML file, or stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch output {
			case outputText, outputJSON, outputYAML:
			default:
				return errortypes.ValidationError(nil, fmt.Sprintf("unknown output format %q", output))
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			text, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			if detailed {
				d := summarizer.SummarizeDetailed(text, opts.Ratio, opts.Requirement, summarizer.LanguageName(opts.Language))
				if output == outputText {
					return writeStats(cmd.OutOrStdout(), d)
				}
				return writeOutput(cmd.OutOrStdout(), output, d, d.Summary)
			}

			cfg, err := config.LoadConfigWithPath(configPath)
			if err != nil {
				return errortypes.ConfigError(err, "failed to load configuration")
			}
			if mode == "" {
				mode = cfg.Summarizer.Mode
			}
			if opts.Ratio == 0 {
				opts.Ratio = cfg.Summarizer.Ratio
			}

			var engine summarizer.Summarizer
			switch mode {
			case docservice.ModeLocal:
				engine = summarizer.NewLocalSummarizer()
			case docservice.ModeAuto:
				_, slogger := setupLogging(cfg)
				engine = docsummary.NewSummarizer(cfg, nil, slogger)
			default:
				return errortypes.ValidationError(nil, fmt.Sprintf("unknown summary mode %q", mode))
			}
			if err := engine.Initialize(); err != nil {
				return err
			}

			result, err := engine.Summarize(commandContext(cmd), summarizer.Request{Text: text, Options: opts})
			if err != nil {
				return err
			}
			if result.Error != "" && output == outputText {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", result.Error)
			}
			return writeOutput(cmd.OutOrStdout(), output, result, result.Summary)
		},
	}
	cmd.Flags().Float64Var(&opts.Ratio, "ratio", 0, "fraction of sentences to keep (default from configuration)")
	cmd.Flags().StringVar(&opts.Requirement, "requirement", "", "special requirement passed to the summarizer")
	cmd.Flags().StringVar(&opts.Language, "language", "", "summary language: en|zh|ja or a language name")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "use the local engine and print statistics")
	cmd.Flags().StringVar(&mode, "mode", "", "summary mode: auto|local (default from configuration)")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text|json|yaml")
	return cmd
}

// readInput returns the text of path, or of stdin when path is "-".
func readInput(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", errortypes.InternalError(err, "failed to read stdin")
		}
		return extract.Text(extract.TypePlain, data)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errortypes.NotFoundError(err, "file not found: "+path)
		}
		return "", errortypes.PermissionError(err, "failed to read "+path)
	}

	contentType := extract.DetectContentType(filepath.Base(path), "")
	if !extract.Allowed(contentType) {
		return "", errortypes.UnsupportedError(nil, fmt.Sprintf("unsupported file type %q", filepath.Ext(path)))
	}
	return extract.Text(contentType, data)
}

func writeOutput(w io.Writer, format string, v any, summary string) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		_, err := fmt.Fprintln(w, strings.TrimSpace(summary))
		return err
	}
}

func writeStats(w io.Writer, d summarizer.Detailed) error {
	_, err := fmt.Fprintf(w, "%s\n\nlanguage: %s\nsentences: %d -> %d\nlength: %d -> %d (%s)\n",
		strings.TrimSpace(d.Summary), d.Stats.Language,
		d.Stats.OriginalSentences, d.Stats.SummarySentences,
		d.Stats.OriginalLength, d.Stats.SummaryLength, d.Stats.CompressionRatio)
	return err
}
