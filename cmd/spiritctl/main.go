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

	"github.com/spf13/cobra"

	"github.com/yungbote/spiritanimal-backend/internal/app"
	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
	"github.com/yungbote/spiritanimal-backend/internal/services"
)

type cli struct {
	verbose bool
	app     *app.App
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if kind := apierr.KindOf(err); kind != "" {
			fmt.Fprintf(os.Stderr, "kind=%s code=%s remediation=%s\n", kind, apierr.CodeOf(err), apierr.Remediation(kind))
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "spiritctl",
		Short:         "Run the spirit animal pipeline stages from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initialize(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.app.Close()
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log to stderr")

	root.AddCommand(newInterpretCommand(c))
	root.AddCommand(newImageCommand(c))
	root.AddCommand(newRunCommand(c))
	return root
}

func (c *cli) initialize(ctx context.Context) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logger.Nop()
	if c.verbose {
		if log, err = logger.New("development", cfg.LogLevel); err != nil {
			return err
		}
	}
	a, err := app.NewWithConfig(ctx, log, cfg)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func newInterpretCommand(c *cli) *cobra.Command {
	var classic bool
	cmd := &cobra.Command{
		Use:   "interpret <personality summary>",
		Short: "Interpret a personality summary and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variant := services.PromptRich
			if classic {
				variant = services.PromptClassic
			}
			in, err := c.app.Services.Interpret.Interpret(cmd.Context(), strings.Join(args, " "), variant)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), in)
		},
	}
	cmd.Flags().BoolVar(&classic, "classic", false, "Use the flat V1 interpretation prompt")
	return cmd
}

func newImageCommand(c *cli) *cobra.Command {
	var provider, prompt string
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Generate one image with a single provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(prompt) == "" {
				return apierr.InvalidRequest("prompt_required", fmt.Errorf("--prompt is required"))
			}
			p, ok := spirit.ParseImageProvider(provider)
			if !ok {
				return apierr.UnsupportedProvider(provider)
			}
			if err := c.app.Services.ImageGen.Check(p); err != nil {
				return err
			}
			res, err := c.app.Services.ImageGen.Generate(cmd.Context(), prompt, p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), imageView(res))
		},
	}
	cmd.Flags().StringVarP(&provider, "provider", "p", "openai", "Image provider: openai, gemini, ideogram or none")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Image prompt")
	return cmd
}

func newRunCommand(c *cli) *cobra.Command {
	var req spirit.V2Request
	var energy, social, element string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full V2 pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Tags.EnergyMode = spirit.EnergyMode(energy)
			req.Tags.SocialPattern = spirit.SocialPattern(social)
			req.Tags.ElementAffinity = spirit.ElementAffinity(element)
			res, err := c.app.Services.Pipeline.RunV2(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := map[string]any{
				"personality_summary": res.PersonalitySummary,
				"interpretation":      res.Interpretation,
				"image":               imageView(res.Image),
			}
			if len(res.Warnings) > 0 {
				out["warnings"] = res.Warnings
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&req.PersonalitySummary, "summary", "", "Personality summary text")
	cmd.Flags().StringVar(&req.Tags.Pronouns, "pronouns", "", "Pronouns, e.g. they/them")
	cmd.Flags().StringVar(&energy, "energy", "", "Energy mode: leader, adapter or observer")
	cmd.Flags().StringVar(&social, "social", "", "Social pattern: solitude, close_circle or crowd")
	cmd.Flags().StringVar(&element, "element", "", "Element affinity: fire, water, earth or air")
	cmd.Flags().StringVarP(&req.ImageProvider, "provider", "p", "", "Image provider (default from config)")
	cmd.Flags().BoolVar(&req.SkipImage, "skip-image", false, "Skip image generation")
	_ = cmd.MarkFlagRequired("summary")
	return cmd
}

func imageView(r spirit.ImageResult) map[string]any {
	out := map[string]any{
		"status":   r.Status,
		"provider": r.Provider,
		"url":      r.Ref(),
	}
	if r.FailureKind != "" {
		out["failure_kind"] = r.FailureKind
		out["failure_reason"] = r.FailureReason
	}
	return out
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
