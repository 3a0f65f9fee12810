package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hororrklama-coder/DiscTransla/internal/app"
	"github.com/hororrklama-coder/DiscTransla/internal/catalog"
	"github.com/hororrklama-coder/DiscTransla/internal/detect"
	"github.com/hororrklama-coder/DiscTransla/internal/domain"
)

func newTranslateCmd() *cobra.Command {
	var (
		to      string
		from    string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate text from the command line",
		Long: `Translate text through the same pipeline the bot uses: detection,
primary and secondary backends, pivot through the pivot language and
chunking of long text.

Examples:
  disctransla translate --to en "Hola, ¿cómo estás?"
  disctransla translate --from de --to ja Guten Morgen`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			languages := catalog.New()
			if to == "" {
				to = cfg.DefaultLanguage
			}
			if !languages.IsSupported(to) {
				return fmt.Errorf("unsupported target language: %s", to)
			}
			if from != "" && !languages.IsSupported(from) {
				return fmt.Errorf("unsupported source language: %s", from)
			}

			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Translator.Translate(cmd.Context(), domain.Request{
				Text:       strings.Join(args, " "),
				TargetLang: to,
				SourceLang: from,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if verbose {
				fmt.Fprintf(out, "[%s → %s]", res.SourceLang, catalog.Normalize(to))
				if res.ChunksProcessed > 1 {
					fmt.Fprintf(out, " %d/%d chunks translated", res.ChunksTranslated, res.ChunksProcessed)
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, res.Text)
			return nil
		},
	}

	cmd.Flags().StringVarP(&to, "to", "t", "", "target language code (default: language.default)")
	cmd.Flags().StringVarP(&from, "from", "f", "", "source language code (default: detected)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the language pair and chunk counts")
	cmd.Flags().String("engine", "lingua", "language detection engine: lingua or whatlanggo")
	cmd.Flags().Int("max-length", 400, "chunk long text above this many characters")
	cmd.Flags().String("pivot", "en", "pivot language for indirect pairs")

	return cmd
}

func newDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect [text...]",
		Short: "Detect the language of text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			detector, err := detect.New(cfg.DetectEngine, cfg.Detection(), logger)
			if err != nil {
				return err
			}

			code := detector.Detect(strings.Join(args, " "))
			name := catalog.New().DisplayName(code)
			if name != code {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", code, name)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), code)
			}
			return nil
		},
	}

	cmd.Flags().String("engine", "lingua", "language detection engine: lingua or whatlanggo")
	cmd.Flags().Bool("low-accuracy", false, "use lingua's smaller, less accurate models")

	return cmd
}
