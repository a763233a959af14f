package argo

import (
	"context"
	"strings"

	"github.com/floatlabs/floatchat/internal/metrics"
	"github.com/floatlabs/floatchat/internal/store"
)

// Context is what the chat layer sees of the dataset for one question: the
// full-dataset snapshot plus, when the question suggests it, a small sample
// of matching records.
type Context struct {
	Stats  *Snapshot
	Sample []store.Record
}

const (
	surfaceDepthCeiling = 50.0
	deepDepthFloor      = 500.0
	depthSampleLimit    = 20
	tempSampleLimit     = 30
	defaultSampleLimit  = 20
)

var (
	surfaceWords = []string{"surface", "shallow", "top"}
	deepWords    = []string{"deep", "bottom", "depth"}
	tempWords    = []string{"warm", "hot", "temperature", "temp"}
	sampleWords  = []string{"sample", "show"}
)

func mentionsAny(message string, words []string) bool {
	for _, w := range words {
		if strings.Contains(message, w) {
			return true
		}
	}
	return false
}

// sampleSpec derives the sample query from keywords in the question, or nil
// when no keyword asks for records. Surface words win over deep words when
// both appear; temperature words widen whatever limit was chosen to 30 and
// on their own ask for an unconstrained sample of 30.
func sampleSpec(message string) *store.FilterSpec {
	message = strings.ToLower(message)

	var spec *store.FilterSpec
	if mentionsAny(message, surfaceWords) {
		maxDepth := surfaceDepthCeiling
		spec = &store.FilterSpec{MaxDepth: &maxDepth, Limit: depthSampleLimit}
	} else if mentionsAny(message, deepWords) {
		minDepth := deepDepthFloor
		spec = &store.FilterSpec{MinDepth: &minDepth, Limit: depthSampleLimit}
	}

	if mentionsAny(message, tempWords) {
		if spec == nil {
			spec = &store.FilterSpec{}
		}
		spec.Limit = tempSampleLimit
	}

	if spec == nil && mentionsAny(message, sampleWords) {
		spec = &store.FilterSpec{Limit: defaultSampleLimit}
	}
	return spec
}

// AssembleContext builds the chat context for one question. The snapshot is
// mandatory and its failure aborts the request. The sample is best effort:
// a failed sample query logs, counts, and degrades to no sample.
func (s *Service) AssembleContext(ctx context.Context, message string) (*Context, error) {
	stats, err := s.DatasetStats(ctx)
	if err != nil {
		return nil, err
	}
	out := &Context{Stats: stats}

	spec := sampleSpec(message)
	if spec == nil {
		return out, nil
	}

	sample, err := s.store.Query(ctx, *spec)
	if err != nil {
		s.log.Warn("sample query failed, continuing without sample", "error", err)
		metrics.ContextSampleErrors.Inc()
		return out, nil
	}
	out.Sample = sample
	return out, nil
}
