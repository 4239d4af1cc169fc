package middleware

import (
	"context"
	"regexp"

	"github.com/remedyhq/remedy/pkg/domain"
	"github.com/remedyhq/remedy/pkg/ports"
)

type piiMiddleware struct {
	next     ports.CheckpointStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of keys
// matching the patterns before the checkpoint reaches storage. Session
// context and alert metrics are the two maps operators routinely paste
// credentials into.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.CheckpointStore) ports.CheckpointStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, cp *domain.Checkpoint) error {
	// 1. Deep clone to avoid side effects on the in-memory record used by the Engine.
	cloned := *cp
	cloned.State = cp.State.Clone()

	// 2. Mask PII
	maskMap(cloned.State.Context, m.patterns)
	if cloned.State.AlertInfo != nil {
		maskMap(cloned.State.AlertInfo.Metrics, m.patterns)
	}

	return m.next.Save(ctx, sessionID, &cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) FindToken(ctx context.Context, token string) (*domain.Checkpoint, error) {
	return m.next.FindToken(ctx, token)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		// Check key against patterns
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = "***"
				break
			}
		}

		// Recurse if map
		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}
