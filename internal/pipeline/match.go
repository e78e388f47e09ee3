package pipeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/catalog"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/config"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/util"
)

const (
	nameWeight  = 0.8
	tokenWeight = 0.2
)

type Matcher struct {
	cfg   config.Config
	index *catalog.Index
	log   *zap.Logger
}

func NewMatcher(cfg config.Config, products []internal.ProductRow, log *zap.Logger) *Matcher {
	return &Matcher{cfg: cfg, index: catalog.BuildIndex(products), log: log}
}

// Match classifies one line item against the catalog. An exact code match
// short-circuits at score 1.0; otherwise the best candidate is scored on
// name similarity plus token overlap. A candidate whose effective window
// does not contain the delivery date is vetoed regardless of score.
func (m *Matcher) Match(item internal.CruiseOrderItem, delivery time.Time) (result internal.ProductMatchResult) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("match panicked",
				zap.String("itemCode", item.ItemCode),
				zap.Any("panic", r))
			result = internal.ProductMatchResult{
				Item:   item,
				Status: internal.MatchError,
				Reason: fmt.Sprintf("match failed: %v", r),
			}
		}
	}()

	if code := util.NormalizeCode(item.ItemCode); code != "" {
		if ids := m.index.ByCode[code]; len(ids) > 0 {
			best := ids[0]
			for _, id := range ids {
				if windowValid(delivery, m.index.Products[id]) {
					best = id
					break
				}
			}
			product := m.index.Products[best]
			if !windowValid(delivery, product) {
				return internal.ProductMatchResult{
					Item:   item,
					Status: internal.MatchNone,
					Score:  1.0,
					Reason: "time validation failed",
				}
			}
			return internal.ProductMatchResult{
				Item:    item,
				Product: &product,
				Status:  internal.MatchMatched,
				Score:   1.0,
				Reason:  "exact code match",
			}
		}
	}

	bestIdx, bestScore := m.bestByName(item.Description)
	if bestIdx < 0 || bestScore < m.cfg.PossibleThreshold {
		return internal.ProductMatchResult{
			Item:   item,
			Status: internal.MatchNone,
			Score:  bestScore,
			Reason: "no candidate above threshold",
		}
	}

	product := m.index.Products[bestIdx]
	if !windowValid(delivery, product) {
		return internal.ProductMatchResult{
			Item:   item,
			Status: internal.MatchNone,
			Score:  bestScore,
			Reason: "time validation failed",
		}
	}

	status := internal.MatchPossible
	reason := fmt.Sprintf("name similarity %.2f", bestScore)
	if bestScore >= m.cfg.MatchedThreshold {
		status = internal.MatchMatched
	}
	return internal.ProductMatchResult{
		Item:    item,
		Product: &product,
		Status:  status,
		Score:   bestScore,
		Reason:  reason,
	}
}

func (m *Matcher) bestByName(description string) (int, float64) {
	norm := util.NormalizeName(description)
	tokens := util.Tokenize(description)

	bestIdx, bestScore := -1, 0.0
	for i := range m.index.Products {
		name := util.BlockRatio(norm, m.index.NormEN[i])
		if m.index.NormJP[i] != "" {
			if jp := util.BlockRatio(norm, m.index.NormJP[i]); jp > name {
				name = jp
			}
		}
		token := util.JaccardTokens(tokens, m.index.TokensEN[i])
		if jp := util.JaccardTokens(tokens, m.index.TokensJP[i]); jp > token {
			token = jp
		}

		score := nameWeight*name + tokenWeight*token
		if score > 1.0 {
			score = 1.0
		}
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return bestIdx, bestScore
}

// windowValid reports whether the delivery date falls inside the product's
// effective window. A nil bound is open. A zero delivery date against a
// bounded window cannot be compared, which counts as a veto.
func windowValid(delivery time.Time, p internal.ProductRow) bool {
	if p.EffectiveFrom == nil && p.EffectiveTo == nil {
		return true
	}
	if delivery.IsZero() {
		return false
	}
	if p.EffectiveFrom != nil && delivery.Before(*p.EffectiveFrom) {
		return false
	}
	if p.EffectiveTo != nil && delivery.After(*p.EffectiveTo) {
		return false
	}
	return true
}

// MatchOrder runs every line item of an order through the matcher and
// aggregates statistics.
func (m *Matcher) MatchOrder(order internal.CruiseOrder) ([]internal.ProductMatchResult, internal.MatchStatistics) {
	results := make([]internal.ProductMatchResult, 0, len(order.Items))
	stats := internal.MatchStatistics{Total: len(order.Items)}
	sum := 0.0

	for _, item := range order.Items {
		res := m.Match(item, order.DeliveryDate)
		results = append(results, res)
		sum += res.Score
		switch res.Status {
		case internal.MatchMatched:
			stats.Matched++
		case internal.MatchPossible:
			stats.Possible++
		case internal.MatchError:
			stats.Errors++
		default:
			stats.Unmatched++
		}
	}
	if stats.Total > 0 {
		stats.MeanScore = sum / float64(stats.Total)
	}

	m.log.Info("matched order items",
		zap.String("po", order.PONumber),
		zap.Int("matched", stats.Matched),
		zap.Int("possible", stats.Possible),
		zap.Int("unmatched", stats.Unmatched),
		zap.Int("errors", stats.Errors))
	return results, stats
}
