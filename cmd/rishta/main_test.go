package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSetupLogger(t *testing.T) {
	run := func(level string) error {
		app := &cli.App{
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "log-level", Value: "info"},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error { return nil },
		}
		return app.Run([]string{"rishta", "--log-level", level})
	}

	t.Run("valid levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG"} {
			require.NoError(t, run(level), "level %s", level)
		}
		assert.NotNil(t, slog.Default())
	})

	t.Run("invalid level", func(t *testing.T) {
		assert.Error(t, run("loud"))
	})
}

func TestMatchCommand_RequiresQuery(t *testing.T) {
	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name:   "match",
				Action: matchCommand,
			},
		},
	}
	err := app.Run([]string{"rishta", "match"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query")
}
