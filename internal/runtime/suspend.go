package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/remedyhq/remedy/pkg/domain"
)

const (
	promptKindCollect  = "collect_info"
	promptKindApproval = "approval"

	approvalKey      = "approval_decision"
	approvalGranted  = "approved"
	approvalRejected = "rejected"
)

// Resume continues a suspended session with the operator's input. The
// checkpoint state is cloned, so the caller's copy stays untouched; the
// returned result carries the advanced state.
func (e *Engine) Resume(ctx context.Context, cp *domain.Checkpoint, input any) (*RunResult, error) {
	if cp.State == nil {
		return nil, domain.ErrSessionNotFound
	}
	if cp.State.Terminated() {
		return nil, domain.ErrSessionTerminated
	}
	if cp.State.Status != domain.StatusWaiting {
		return nil, domain.ErrNotWaiting
	}

	st := cp.State.Clone()
	st.Status = domain.StatusActive
	st.CollectionAttempts++
	e.fireResume(ctx, st, cp.Token)
	e.logger.Info("session resumed",
		"session_id", st.SessionID,
		"collection_attempts", st.CollectionAttempts,
	)

	update, err := e.absorbInput(ctx, st, cp.Prompt, input)
	if err != nil {
		return nil, err
	}
	if err := domain.Merge(st, domain.StepCollectInfo, update, e.clock()); err != nil {
		return nil, fmt.Errorf("merge resume input: %w", err)
	}

	return e.Run(ctx, st)
}

// Ingest folds initial operator input (free text or a structured map)
// into a fresh session record before the first run slice.
func (e *Engine) Ingest(ctx context.Context, st *domain.State, input any) error {
	if st.Terminated() {
		return domain.ErrSessionTerminated
	}
	update, err := e.absorbInput(ctx, st, nil, input)
	if err != nil {
		return err
	}
	if err := domain.Merge(st, domain.StepCollectInfo, update, e.clock()); err != nil {
		return fmt.Errorf("merge initial input: %w", err)
	}
	return nil
}

// absorbInput turns the operator's reply into a partial update. Free
// text goes through the extractor; structured maps are decoded as seed
// fields; approval prompts parse a decision. Resolved requests are
// cleared so the router moves past collection.
func (e *Engine) absorbInput(ctx context.Context, st *domain.State, prompt *domain.Prompt, input any) (domain.Update, error) {
	text, structured := NormalizeInput(input)

	update := domain.Update{}
	if text != "" {
		update.Messages = []domain.Message{{
			Role:    domain.RoleUser,
			Content: text,
			Time:    e.clock(),
		}}
	}

	if prompt != nil && promptKind(prompt) == promptKindApproval {
		decision := parseApproval(text)
		if decision == "" {
			return domain.Update{}, fmt.Errorf("%w: expected approval decision (approved/rejected), got %q",
				domain.ErrInvalidResumeInput, text)
		}
		update.Context = map[string]any{approvalKey: decision}
		update.ResolvePending = requestIDs(prompt)
		return update, nil
	}

	if structured != nil {
		seed, err := domain.DecodeSeed(structured)
		if err != nil {
			return domain.Update{}, fmt.Errorf("%w: %v", domain.ErrInvalidResumeInput, err)
		}
		update.AlertInfo = seed.AlertInfo
		update.Symptoms = seed.Symptoms
		update.Context = seed.Context
	} else if text != "" {
		var extraction *domain.Extraction
		err := e.invoke(ctx, "extractor", func(c context.Context) error {
			var xerr error
			extraction, xerr = e.adapters.Extractor.Extract(c, text)
			return xerr
		})
		if err != nil {
			// Extraction failure is not fatal: keep the raw message and
			// let the next collection round ask again.
			e.logger.Warn("extraction failed on resume",
				"session_id", st.SessionID,
				"err", err,
			)
		} else if !extraction.Empty() {
			update.AlertInfo = extraction.AlertInfo
			update.Symptoms = extraction.Symptoms
			update.Context = extraction.Context
		}
	}

	if prompt != nil && (update.AlertInfo != nil || len(update.Symptoms) > 0 ||
		len(update.Context) > 0 || text != "") {
		update.ResolvePending = requestIDs(prompt)
	}
	return update, nil
}

// NormalizeInput reduces the many shapes a resume payload arrives in to
// either free text or a structured map. Wrapper maps with a single
// conventional key (response, input, value, content) are unwrapped, one
// nested level deep.
func NormalizeInput(input any) (text string, structured map[string]any) {
	switch v := input.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case map[string]any:
		if inner, ok := unwrap(v); ok {
			switch iv := inner.(type) {
			case string:
				return strings.TrimSpace(iv), nil
			case map[string]any:
				if deeper, ok := unwrap(iv); ok {
					if s, ok := deeper.(string); ok {
						return strings.TrimSpace(s), nil
					}
					if m, ok := deeper.(map[string]any); ok {
						return "", m
					}
				}
				return "", iv
			default:
				return strings.TrimSpace(fmt.Sprintf("%v", iv)), nil
			}
		}
		return "", v
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v)), nil
	}
}

var wrapperKeys = []string{"response", "input", "value", "content"}

func unwrap(m map[string]any) (any, bool) {
	if len(m) != 1 {
		return nil, false
	}
	for _, k := range wrapperKeys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func parseApproval(text string) string {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "approved", "approve", "yes", "y", "ok", "lgtm":
		return approvalGranted
	case "rejected", "reject", "no", "n", "deny", "denied":
		return approvalRejected
	}
	return ""
}

func promptKind(p *domain.Prompt) string {
	kind, _ := p.Context["kind"].(string)
	return kind
}

func requestIDs(p *domain.Prompt) []string {
	ids := make([]string, 0, len(p.Requests))
	for _, r := range p.Requests {
		ids = append(ids, r.ID)
	}
	return ids
}
