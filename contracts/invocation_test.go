package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvocationContext(t *testing.T) {
	t.Run("config is set at construction", func(t *testing.T) {
		ic := NewInvocationContext("/etc/tap/config.json")

		path, err := ic.ConfigPath()
		require.NoError(t, err)
		assert.Equal(t, "/etc/tap/config.json", path)
	})

	t.Run("unset recognized option fails with ErrOptionNotSet", func(t *testing.T) {
		ic := NewInvocationContext("/etc/tap/config.json")

		_, err := ic.Option(OptionState)
		assert.ErrorIs(t, err, ErrOptionNotSet)
		assert.NotErrorIs(t, err, ErrInvalidOption)
		assert.Contains(t, err.Error(), "state")
	})

	t.Run("unknown option fails with ErrInvalidOption", func(t *testing.T) {
		ic := NewInvocationContext("/etc/tap/config.json")

		_, err := ic.Option("credentials")
		assert.ErrorIs(t, err, ErrInvalidOption)
		assert.NotErrorIs(t, err, ErrOptionNotSet)

		err = ic.SetOption("credentials", "/tmp/creds")
		assert.ErrorIs(t, err, ErrInvalidOption)
	})

	t.Run("keyed and typed accessors agree", func(t *testing.T) {
		ic := NewInvocationContext("/etc/tap/config.json")
		require.NoError(t, ic.SetOption(OptionCatalog, "/etc/tap/catalog.json"))
		ic.SetStatePath("/var/lib/tap/state.json")

		byKey, err := ic.Option(OptionCatalog)
		require.NoError(t, err)
		byField, err := ic.CatalogPath()
		require.NoError(t, err)
		assert.Equal(t, byField, byKey)

		state, err := ic.Option(OptionState)
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/tap/state.json", state)

		_, err = ic.PropertiesPath()
		assert.ErrorIs(t, err, ErrOptionNotSet)
	})

	t.Run("setting overwrites the previous path", func(t *testing.T) {
		ic := NewInvocationContext("/a.json")
		ic.SetConfigPath("/b.json")

		path, err := ic.ConfigPath()
		require.NoError(t, err)
		assert.Equal(t, "/b.json", path)
	})
}
