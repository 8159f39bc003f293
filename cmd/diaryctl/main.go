package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/kirillkom/travel-diary/internal/config"
	"github.com/kirillkom/travel-diary/internal/core/domain"
	"github.com/kirillkom/travel-diary/internal/core/ports"
	"github.com/kirillkom/travel-diary/internal/infrastructure/classifier/keyword"
	"github.com/kirillkom/travel-diary/internal/infrastructure/classifier/process"
	"github.com/kirillkom/travel-diary/internal/infrastructure/exif"
	"github.com/kirillkom/travel-diary/internal/infrastructure/resilience"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand(config.Load())
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "diaryctl: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diaryctl",
		Short: "Travel diary operator CLI",
		Long: `diaryctl runs the diary pipeline's standalone pieces locally: category classification,
layout resolution and photo metadata extraction.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newClassifyCmd(cfg),
		newLayoutsCmd(),
		newExifCmd(cfg),
	)
	return cmd
}

func newClassifyCmd(cfg config.Config) *cobra.Command {
	mode := cfg.ClassifierMode
	command := cfg.ClassifierCommand
	script := cfg.ClassifierScript
	timeout := cfg.ClassifierTimeout

	cmd := &cobra.Command{
		Use:   "classify <text...>",
		Short: "Classify diary text and show the recommended layouts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var classifier ports.CategoryClassifier
			switch mode {
			case "keyword":
				classifier = keyword.New()
			case "process":
				classifier = process.New(process.Config{
					Command: command,
					Script:  script,
					Timeout: timeout,
				}, resilience.NewExecutor(resilience.ProcessPolicy()), nil)
			default:
				return fmt.Errorf("unknown classifier mode %q", mode)
			}

			category := classifier.Classify(cmd.Context(), strings.Join(args, " "))
			return printJSON(cmd.OutOrStdout(), domain.ResolveLayouts(category))
		},
	}
	cmd.Flags().StringVar(&mode, "mode", mode, "Classifier implementation: process or keyword")
	cmd.Flags().StringVar(&command, "command", command, "Interpreter used to run the model script")
	cmd.Flags().StringVar(&script, "script", script, "Model script passed to the interpreter")
	cmd.Flags().DurationVar(&timeout, "timeout", timeout, "Classification timeout")
	return cmd
}

func newLayoutsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layouts [category]",
		Short: "List layout templates, or the pair recommended for a category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return printJSON(cmd.OutOrStdout(), domain.LayoutCatalog())
			}
			return printJSON(cmd.OutOrStdout(), domain.ResolveLayouts(domain.Category(args[0])))
		},
	}
}

func newExifCmd(cfg config.Config) *cobra.Command {
	timezone := cfg.AppTimezone
	cmd := &cobra.Command{
		Use:   "exif <file>",
		Short: "Print GPS and capture time metadata of a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read photo: %w", err)
			}
			zoneCfg := cfg
			zoneCfg.AppTimezone = timezone
			location := zoneCfg.Location()

			result := exif.NewExtractor(location).Extract(data)
			out := struct {
				domain.ExifResult
				TimeSlot domain.TimeSlot `json:"timeSlot"`
			}{
				ExifResult: result,
				TimeSlot:   domain.TimeSlotFor(result.Date, location),
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&timezone, "timezone", timezone, "IANA zone used to bucket the capture time")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
