package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("CACHE_BACKEND", "memory")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_HoldThenMetrics(t *testing.T) {
	db := filepath.Join(t.TempDir(), "portfolio.db")
	common := []string{"--db", db, "--prices", "mock"}

	out, err := run(t, append([]string{"hold", "5", "BTC", "0.5"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "user 5 holds 0.5 BTC\n", out)

	out, err = run(t, append([]string{"metrics", "5"}, common...)...)
	require.NoError(t, err)
	var bundle map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &bundle))
	assert.Equal(t, 5.0, bundle["userId"])
	assert.Equal(t, 100.0, bundle["concentrationIndex"])
	assert.Equal(t, 0.3, bundle["diversificationRatio"])

	_, err = run(t, append([]string{"drop", "5", "ETH"}, common...)...)
	assert.ErrorContains(t, err, "does not hold ETH")
}

func TestCLI_InvalidUserID(t *testing.T) {
	_, err := run(t, "metrics", "abc", "--db", filepath.Join(t.TempDir(), "p.db"))
	assert.ErrorContains(t, err, `invalid user id "abc"`)
}
