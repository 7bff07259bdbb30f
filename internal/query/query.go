// Package query implements C8: resolving a query's sequence of
// sub-fingerprints against the model store: gather candidates by LSH
// table lookups, keep those matched in enough tables, then verify
// each by exact Hamming distance.
package query

import (
	"context"
	"math/bits"
	"sort"
	"strconv"

	fperrors "github.com/zfogg/soundfp/internal/errors"
	"github.com/zfogg/soundfp/internal/fingerprint"
	"github.com/zfogg/soundfp/internal/logger"
	"github.com/zfogg/soundfp/internal/metrics"
	"github.com/zfogg/soundfp/internal/store"
)

// Params holds the query-time configuration from spec §6.
type Params struct {
	MinHitsPerFP   int
	MinSimilarity  float64
	ThresholdVotes int
}

// TrackResult is one ranked candidate track.
type TrackResult struct {
	Track      store.TrackRef
	MatchedFPs int
	Score      float64
}

// Result is the outcome of one recognition query.
type Result struct {
	IsSuccessful bool
	BestMatch    *TrackResult
	Ranked       []TrackResult
}

// Engine runs C8 against a ModelStore.
type Engine struct {
	Store  store.ModelStore
	Params Params
}

// NewEngine builds a query Engine.
func NewEngine(s store.ModelStore, p Params) *Engine {
	return &Engine{Store: s, Params: p}
}

// Run resolves fps (one query's sub-fingerprints) against the store.
// An empty fps slice is not an error: it yields IsSuccessful=false.
func (e *Engine) Run(ctx context.Context, fps []fingerprint.SubFingerprint) (*Result, error) {
	scores := make(map[store.TrackRef]float64)
	matchedQueryFPs := make(map[store.TrackRef]map[int]struct{})
	var candidatesScanned int
	candidatesPerTable := make(map[int]int)

	for qi, q := range fps {
		hitCounts := make(map[store.SubFpRef]int)
		for t, key := range q.HashKeys {
			refs, err := e.Store.ReadSubFingerprintsByHash(ctx, t, key)
			if err != nil {
				return nil, fperrors.StoreFailuref(err, "candidate gathering failed for table %d", t)
			}
			metrics.Get().HashTableHitsTotal.WithLabelValues(strconv.Itoa(t)).Add(float64(len(refs)))
			candidatesPerTable[t] += len(refs)
			for _, ref := range refs {
				hitCounts[ref]++
			}
		}
		candidatesScanned += len(hitCounts)

		for ref, hits := range hitCounts {
			if hits < e.Params.MinHitsPerFP {
				continue
			}
			candidateBits, err := e.Store.ReadFingerprintBits(ctx, ref)
			if err != nil {
				return nil, fperrors.StoreFailuref(err, "reading candidate bits failed")
			}
			sim := similarity(q.Bits, candidateBits)
			if sim < e.Params.MinSimilarity {
				continue
			}
			track, err := e.Store.TrackOf(ctx, ref)
			if err != nil {
				return nil, fperrors.StoreFailuref(err, "resolving candidate track failed")
			}
			scores[track] += sim
			if matchedQueryFPs[track] == nil {
				matchedQueryFPs[track] = make(map[int]struct{})
			}
			matchedQueryFPs[track][qi] = struct{}{}
		}
	}
	metrics.Get().CandidatesScannedTotal.WithLabelValues().Observe(float64(candidatesScanned))
	if logger.Log != nil {
		for t, n := range candidatesPerTable {
			logger.Log.Debug("hash table candidates gathered", logger.WithTableIndex(t), logger.WithCandidateCount(n))
		}
	}

	var ranked []TrackResult
	for track, fpSet := range matchedQueryFPs {
		matched := len(fpSet)
		if matched < e.Params.ThresholdVotes {
			continue
		}
		ranked = append(ranked, TrackResult{
			Track:      track,
			MatchedFPs: matched,
			Score:      scores[track],
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].MatchedFPs != ranked[j].MatchedFPs {
			return ranked[i].MatchedFPs > ranked[j].MatchedFPs
		}
		return ranked[i].Track < ranked[j].Track
	})

	result := &Result{Ranked: ranked}
	if len(ranked) > 0 {
		best := ranked[0]
		result.BestMatch = &best
		result.IsSuccessful = true
	}
	return result, nil
}

// similarity computes 1 - hamming(a,b)/N over the longer of the two
// bit-vectors' length in bits.
func similarity(a, b []byte) float64 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	if n == 0 {
		return 1
	}
	var dist int
	for i := 0; i < n; i++ {
		var ab, bb byte
		if i < len(a) {
			ab = a[i]
		}
		if i < len(b) {
			bb = b[i]
		}
		dist += bits.OnesCount8(ab ^ bb)
	}
	return 1 - float64(dist)/float64(n*8)
}
