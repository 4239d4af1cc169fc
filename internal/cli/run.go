package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/remedyhq/remedy"
	"github.com/remedyhq/remedy/pkg/domain"
)

// RunInteractive drives one session on the terminal: it starts from the
// operator's description, answers suspension prompts from stdin, and
// renders the final report. Returns the terminal state.
func RunInteractive(ctx context.Context, eng *remedy.Engine, sessionID, text string, in io.Reader, out io.Writer) (*domain.State, error) {
	render := NewRenderer()
	scanner := bufio.NewScanner(in)

	res, err := eng.StartText(ctx, sessionID, text)
	if err != nil {
		return nil, err
	}
	sid := res.State.SessionID

	for res.Waiting != nil {
		fmt.Fprint(out, render(PromptMarkdown(&res.Waiting.Prompt)))
		fmt.Fprint(out, "> ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, err
			}
			// Operator closed stdin mid-session; leave it suspended so it
			// can be resumed later by token.
			fmt.Fprintf(out, "\nsession %s suspended, resume with token %s\n",
				sid, res.Waiting.Token)
			return res.State, nil
		}

		answer := strings.TrimSpace(scanner.Text())
		res, err = eng.Resume(ctx, res.Waiting.Token, answer)
		if errors.Is(err, domain.ErrInvalidResumeInput) {
			fmt.Fprintf(out, "could not interpret that: %v\n", err)
			// The token is still live; re-prompt with the same question.
			waiting, perr := eng.Prompt(ctx, sid)
			if perr != nil || waiting == nil {
				return nil, err
			}
			st, perr := eng.Get(ctx, sid)
			if perr != nil {
				return nil, perr
			}
			res = &remedy.Result{State: st, Waiting: waiting}
			continue
		}
		if err != nil {
			return nil, err
		}
	}

	st := res.State
	fmt.Fprintf(out, "\nsession %s finished: %s\n\n", st.SessionID, st.TerminalReason)
	if st.Report != nil {
		fmt.Fprint(out, render(ReportMarkdown(st.Report)))
	}
	if len(st.Errors) > 0 {
		fmt.Fprintf(out, "\n%d error(s) were recorded during handling:\n", len(st.Errors))
		for _, e := range st.Errors {
			fmt.Fprintf(out, "  [%s] %s\n", e.Kind, e.Message)
		}
	}
	return st, nil
}
