package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"etymon/internal/config"
	"etymon/internal/keypool"
	"etymon/internal/logging"
	"etymon/internal/lookup"
	"etymon/internal/resultcache"
	"etymon/internal/services/gemini"
)

func newLookupService(cfg *config.Config) (*lookup.Service, error) {
	pool, err := keypool.New(cfg.Provider.APIKeys)
	if err != nil {
		return nil, err
	}
	client := gemini.NewClient(gemini.Config{
		BaseURL:        cfg.Provider.BaseURL,
		TextModel:      cfg.Provider.TextModel,
		TTSModel:       cfg.Provider.TTSModel,
		ImageModel:     cfg.Provider.ImageModel,
		CallTimeout:    cfg.CallTimeout(),
		RetryAttempts:  cfg.Provider.RetryAttempts,
		RetryBaseDelay: cfg.RetryBaseDelay(),
	})
	cache, err := resultcache.New(resultcache.Options{
		Capacity:    cfg.Cache.Capacity,
		SuccessTTL:  cfg.SuccessTTL(),
		DegradedTTL: cfg.DegradedTTL(),
		MirrorPath:  cfg.CacheMirrorPath(),
	})
	if err != nil {
		return nil, err
	}
	return lookup.NewService(pool, client, cache, logging.NewNop())
}

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var summaryOnly bool

	cmd := &cobra.Command{
		Use:   "lookup <word>",
		Short: "Look up a word's etymology",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			service, err := newLookupService(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if summaryOnly {
				artifact, err := service.Summary(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(out, artifact)
				}
				fmt.Fprintln(out, artifact.Summary)
				if artifact.Degraded {
					fmt.Fprintf(out, "(degraded: %s)\n", artifact.DegradedReason)
				}
				return nil
			}

			artifact, err := service.Details(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(out, artifact)
			}
			printArtifact(out, artifact)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON artifact")
	cmd.Flags().BoolVar(&summaryOnly, "summary", false, "Fetch the one-paragraph origin story instead of full details")
	return cmd
}

func printJSON(out io.Writer, value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = out.Write(append(encoded, '\n'))
	return err
}

func printArtifact(out io.Writer, artifact lookup.WordArtifact) {
	fmt.Fprintf(out, "%s", artifact.Word)
	if artifact.Phonetic != "" {
		fmt.Fprintf(out, "  %s", artifact.Phonetic)
	}
	if artifact.PartOfSpeech != "" {
		fmt.Fprintf(out, "  (%s)", artifact.PartOfSpeech)
	}
	fmt.Fprintln(out)

	if artifact.Definition != "" {
		fmt.Fprintf(out, "\n%s\n", artifact.Definition)
	}
	if artifact.Etymology != "" {
		fmt.Fprintf(out, "\nEtymology:\n%s\n", artifact.Etymology)
	}
	if len(artifact.Roots) > 0 {
		fmt.Fprintln(out, "\nRoots:")
		for _, root := range artifact.Roots {
			fmt.Fprintf(out, "  %s (%s): %s\n", root.Term, root.Language, root.Meaning)
		}
	}
	if len(artifact.Examples) > 0 {
		fmt.Fprintln(out, "\nExamples:")
		for _, example := range artifact.Examples {
			fmt.Fprintf(out, "  - %s\n", example)
		}
	}
	if len(artifact.Synonyms) > 0 {
		fmt.Fprintf(out, "\nSynonyms: %s\n", strings.Join(artifact.Synonyms, ", "))
	}
	if artifact.FunFact != "" {
		fmt.Fprintf(out, "\nFun fact: %s\n", artifact.FunFact)
	}
	if artifact.Degraded {
		fmt.Fprintf(out, "\n(degraded result: %s; retry in a few minutes)\n", artifact.DegradedReason)
	}
}
