package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xivmarket/internal/services/universalis"
)

func TestGearArgs(t *testing.T) {
	quality = "nq"
	ilvl, q, err := gearArgs("560")
	require.NoError(t, err)
	assert.Equal(t, 560, ilvl)
	assert.Equal(t, universalis.NQ, q)

	_, _, err = gearArgs("0")
	assert.Error(t, err)
	_, _, err = gearArgs("abc")
	assert.Error(t, err)

	quality = "shiny"
	_, _, err = gearArgs("560")
	assert.Error(t, err)
	quality = "hq"
}

func TestVelocityFlag(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().IntVar(&minVelocity, "min-velocity", 0, "")
	assert.Equal(t, 25, velocityFlag(cmd, 25))

	require.NoError(t, cmd.Flags().Set("min-velocity", "3"))
	assert.Equal(t, 3, velocityFlag(cmd, 25))
}

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ventures", "collectibles", "scrips", "gearset", "jobset", "resell", "stats", "server", "chat", "catalog"} {
		assert.True(t, names[want], want)
	}
	assert.Len(t, catalogCmd.Commands(), 2)
}
