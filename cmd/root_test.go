package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagCommand() *cobra.Command {
	c := &cobra.Command{Use: "test"}
	c.Flags().String("tier", "", "")
	c.Flags().Int("workers", 0, "")
	c.Flags().String("unmapped", "", "")
	return c
}

func TestBindFlagsMapsToConfigKeys(t *testing.T) {
	c := newFlagCommand()
	require.NoError(t, c.Flags().Set("tier", "phoneme"))

	v := viper.New()
	require.NoError(t, bindFlags(c, v))

	assert.Equal(t, "phoneme", v.GetString("organize.tier"))
	assert.False(t, v.IsSet("unmapped"))
}

func TestBindFlagsEnvironment(t *testing.T) {
	t.Setenv("FEATMERGE_WORKERS", "3")

	c := newFlagCommand()
	v := viper.New()
	require.NoError(t, bindFlags(c, v))

	assert.Equal(t, 3, v.GetInt("organize.workers"))
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"organize", "gemaps", "combine", "run", "config"} {
		assert.True(t, names[want], want)
	}
}
