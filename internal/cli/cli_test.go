package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remedyhq/remedy/internal/config"
	"github.com/remedyhq/remedy/pkg/domain"
)

func TestBuildEngineMemory(t *testing.T) {
	cfg := config.Default()
	eng, closeStore, err := BuildEngine(cfg, NewLogger(cfg.Log))
	require.NoError(t, err)
	defer closeStore()

	res, err := eng.StartText(context.Background(), "inc-1", "please help")
	require.NoError(t, err)
	assert.NotNil(t, res.Waiting)
}

func TestBuildEngineSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Kind = "sqlite"
	cfg.Store.SQLite.Path = filepath.Join(t.TempDir(), "remedy.db")
	cfg.Privacy.MaskPII = true

	eng, closeStore, err := BuildEngine(cfg, NewLogger(cfg.Log))
	require.NoError(t, err)
	defer closeStore()

	_, err = eng.StartText(context.Background(), "inc-1", "please help")
	require.NoError(t, err)
}

func TestBuildEngineUnknownStore(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Kind = "postgres"

	_, _, err := BuildEngine(cfg, NewLogger(cfg.Log))
	require.Error(t, err)
}

func TestRunInteractiveFullFlow(t *testing.T) {
	cfg := config.Default()
	eng, closeStore, err := BuildEngine(cfg, NewLogger(cfg.Log))
	require.NoError(t, err)
	defer closeStore()

	in := strings.NewReader(
		"CPU is at 98% on web-1. It started after the last deploy in prod.\n" +
			"approved\n")
	var out bytes.Buffer

	st, err := RunInteractive(context.Background(), eng, "inc-2", "please help, it is broken", in, &out)
	require.NoError(t, err)

	require.True(t, st.Terminated())
	assert.Equal(t, domain.ReasonCompleted, st.TerminalReason)
	require.NotNil(t, st.Report)
	assert.Contains(t, out.String(), "finished: completed")
}

func TestRunInteractiveStdinClosedLeavesSuspended(t *testing.T) {
	cfg := config.Default()
	eng, closeStore, err := BuildEngine(cfg, NewLogger(cfg.Log))
	require.NoError(t, err)
	defer closeStore()

	var out bytes.Buffer
	st, err := RunInteractive(context.Background(), eng, "inc-3", "please help", strings.NewReader(""), &out)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusWaiting, st.Status)
	assert.Contains(t, out.String(), "resume with token")
}

func TestReportMarkdown(t *testing.T) {
	md := ReportMarkdown(&domain.Report{
		IncidentID: "inc-9",
		Title:      "Incident inc-9",
		Summary:    "resource exhaustion on web-1",
		Degraded:   true,
		Sections:   []domain.ReportSection{{Title: "Diagnosis", Body: "cpu saturated"}},
	})
	assert.Contains(t, md, "# Incident inc-9")
	assert.Contains(t, md, "Degraded report")
	assert.Contains(t, md, "## Diagnosis")
}
