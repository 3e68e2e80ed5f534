// Package analysis sequences the listing analysis pipeline: product
// identification, price search and comparison, and scam scoring.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"dealcheck/internal/listing"
	"dealcheck/internal/pricing"
	"dealcheck/internal/scoring"
)

// FallbackSummary is returned when the risk assessor fails.
const FallbackSummary = "Unable to perform scam analysis"

// DefaultStageTimeout bounds each collaborator call so a hanging external
// service degrades that stage instead of blocking the whole request.
const DefaultStageTimeout = 30 * time.Second

// ErrNoListing is returned when Analyze is called without a listing.
var ErrNoListing = errors.New("no listing data provided")

// ProductIdentifier identifies the product described by a listing.
// A nil product with nil error means identification was inconclusive.
type ProductIdentifier interface {
	Identify(ctx context.Context, l *listing.Listing) (*listing.IdentifiedProduct, error)
}

// PriceSearcher finds comparable prices for a search query. An empty
// result is valid and means no comparables were found.
type PriceSearcher interface {
	Search(ctx context.Context, query string) ([]listing.PriceObservation, error)
}

// RiskAssessor produces scam indicators for a listing given whatever
// product and price context is available. Both may be nil.
type RiskAssessor interface {
	Assess(ctx context.Context, l *listing.Listing, product *listing.IdentifiedProduct, comparison *listing.PriceComparison) (listing.RiskAssessment, error)
}

// Analyzer runs the analysis pipeline. Collaborator failures degrade the
// corresponding stage; only a panic aborts the whole analysis.
type Analyzer struct {
	identifier   ProductIdentifier
	searcher     PriceSearcher
	assessor     RiskAssessor
	stageTimeout time.Duration
}

// New creates an Analyzer. A non-positive stageTimeout falls back to
// DefaultStageTimeout.
func New(identifier ProductIdentifier, searcher PriceSearcher, assessor RiskAssessor, stageTimeout time.Duration) *Analyzer {
	if stageTimeout <= 0 {
		stageTimeout = DefaultStageTimeout
	}
	return &Analyzer{
		identifier:   identifier,
		searcher:     searcher,
		assessor:     assessor,
		stageTimeout: stageTimeout,
	}
}

// Analyze runs the full pipeline for one listing. The stages run strictly
// in sequence because each depends on the previous one's output. Success
// in the result means the pipeline completed, not that every signal was
// available.
func (a *Analyzer) Analyze(ctx context.Context, l *listing.Listing) (result *listing.AnalysisResult, err error) {
	if l == nil {
		return nil, ErrNoListing
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("listingId", l.ID).Msg("analysis pipeline panicked")
			result = nil
			err = fmt.Errorf("analysis failed: %v", r)
		}
	}()

	log.Info().Str("listingId", l.ID).Str("title", l.Title).Msg("analyzing listing")

	product := a.identifyProduct(ctx, l)

	// The comparison is only computed when a search was actually attempted.
	// A search that returns zero results still yields a comparison with an
	// unknown verdict; a skipped search yields none at all.
	var comparison *listing.PriceComparison
	if product != nil && product.SearchQuery != "" {
		observations := a.searchPrices(ctx, product.SearchQuery)
		c := pricing.Compare(l.Price, observations)
		comparison = &c
	}

	assessment := a.assessRisk(ctx, l, product, comparison)
	scamAnalysis := scoring.Build(assessment)

	log.Info().
		Str("listingId", l.ID).
		Bool("productIdentified", product != nil).
		Bool("pricesCompared", comparison != nil).
		Int("score", scamAnalysis.Score).
		Str("riskLevel", string(scamAnalysis.RiskLevel)).
		Msg("analysis complete")

	return &listing.AnalysisResult{
		Success:         true,
		Product:         product,
		PriceComparison: comparison,
		ScamAnalysis:    scamAnalysis,
	}, nil
}

// identifyProduct invokes the identifier. Failure is not fatal: the
// pipeline continues without a product.
func (a *Analyzer) identifyProduct(ctx context.Context, l *listing.Listing) *listing.IdentifiedProduct {
	ctx, cancel := context.WithTimeout(ctx, a.stageTimeout)
	defer cancel()

	product, err := a.identifier.Identify(ctx, l)
	if err != nil {
		log.Warn().Err(err).Str("listingId", l.ID).Msg("product identification failed")
		return nil
	}
	if product == nil {
		log.Info().Str("listingId", l.ID).Msg("product could not be identified")
		return nil
	}
	log.Info().Str("listingId", l.ID).Str("product", product.Name).Str("confidence", string(product.Confidence)).Msg("identified product")
	return product
}

// searchPrices invokes the price search. A failed search counts as an
// attempted search with zero results.
func (a *Analyzer) searchPrices(ctx context.Context, query string) []listing.PriceObservation {
	ctx, cancel := context.WithTimeout(ctx, a.stageTimeout)
	defer cancel()

	observations, err := a.searcher.Search(ctx, query)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("price search failed")
		return nil
	}
	log.Info().Str("query", query).Int("results", len(observations)).Msg("price search complete")
	return observations
}

// assessRisk invokes the risk assessor, degrading to an empty assessment
// with a fixed summary on failure.
func (a *Analyzer) assessRisk(ctx context.Context, l *listing.Listing, product *listing.IdentifiedProduct, comparison *listing.PriceComparison) listing.RiskAssessment {
	ctx, cancel := context.WithTimeout(ctx, a.stageTimeout)
	defer cancel()

	assessment, err := a.assessor.Assess(ctx, l, product, comparison)
	if err != nil {
		log.Warn().Err(err).Str("listingId", l.ID).Msg("risk assessment failed")
		return listing.RiskAssessment{Indicators: []listing.ScamIndicator{}, Summary: FallbackSummary}
	}
	return assessment
}
