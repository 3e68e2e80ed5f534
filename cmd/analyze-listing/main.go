// Command analyze-listing runs the analysis pipeline on a listing JSON
// file and prints the result, without starting the HTTP server.
//
// Usage: analyze-listing <listing.json>
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"dealcheck/internal/analysis"
	"dealcheck/internal/config"
	"dealcheck/internal/listing"
	"dealcheck/internal/llm"
	"dealcheck/internal/serp"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: analyze-listing <listing.json>")
		os.Exit(1)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read listing file")
	}

	var l listing.Listing
	if err := json.Unmarshal(data, &l); err != nil {
		log.Fatal().Err(err).Msg("failed to parse listing JSON")
	}

	cfg := config.Load()
	if cfg.Gemini.APIKey == "" {
		log.Fatal().Msg("GEMINI_API_KEY is not set")
	}

	ctx := context.Background()

	gemini, err := llm.NewGemini(ctx, cfg.Gemini.APIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize gemini client")
	}

	searcher := serp.NewClient(serp.ClientOpts{
		APIKey:  cfg.Serp.APIKey,
		Country: cfg.Serp.Country,
		Lang:    cfg.Serp.Lang,
	})

	analyzer := analysis.New(gemini, searcher, gemini, cfg.Gemini.StageTimeout)

	result, err := analyzer.Analyze(ctx, &l)
	if err != nil {
		log.Fatal().Err(err).Msg("analysis failed")
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to marshal result")
	}
	fmt.Println(string(out))
}
