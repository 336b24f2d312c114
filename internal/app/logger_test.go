package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/rasconsole/pkg/logger"
)

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(func() { logger.Replace(nil) })
	require.NoError(t, ConfigureLogging(LogConfig{Level: "debug", Format: "json"}))
	require.NoError(t, ConfigureLogging(LogConfig{}))
}
