package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	entitlement "github.com/careerlift/quota/internal/entitlement/domain"
	"github.com/careerlift/quota/internal/usage/application"
	"github.com/careerlift/quota/internal/usage/infrastructure/persistence"
	"github.com/careerlift/quota/pkg/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	SetLogger(quiet)

	records := persistence.NewMemoryRepository()
	a := &App{
		Config:  &config.Config{CooldownWindow: 30 * time.Second},
		Logger:  quiet,
		Records: records,
		Usage:   application.NewService(records, application.WithLogger(quiet)),
	}
	SetApp(a)
	t.Cleanup(func() { SetApp(nil) })
	return a
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return buf.String()
}

func TestCheckCommand_LockedFeature(t *testing.T) {
	app := newTestApp(t)

	userID := uuid.New()
	_, err := app.Usage.GetUsageForUser(context.Background(), userID, entitlement.PlanFree)
	require.NoError(t, err)

	output := runCommand(t, "check", userID.String(), "resume_feedback")

	assert.Contains(t, output, "Plan:    free")
	assert.Contains(t, output, "Allowed: no (locked)")
}

func TestCheckCommand_AllowedWithUsage(t *testing.T) {
	app := newTestApp(t)

	userID := uuid.New()
	_, err := app.Usage.IncrementFeatureUsage(context.Background(), userID, entitlement.PlanTrial, entitlement.FeatureATSScore)
	require.NoError(t, err)

	output := runCommand(t, "check", userID.String(), "ats_score")

	assert.Contains(t, output, "Allowed: yes")
	assert.Contains(t, output, "Usage:   1/10")
}

func TestCheckCommand_InvalidUserID(t *testing.T) {
	newTestApp(t)

	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"check", "not-a-uuid", "ats_score"})
	assert.Error(t, rootCmd.ExecuteContext(context.Background()))
}

func TestInspectCommand_NoRecord(t *testing.T) {
	newTestApp(t)

	output := runCommand(t, "inspect", uuid.NewString())

	assert.Contains(t, output, "No usage record found.")
}
