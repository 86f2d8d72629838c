package checks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/stackcheck/config"
	"github.com/jonwraymond/stackcheck/task"
)

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"v20.11.1\n", "20.11.1"},
		{"Python 3.12.2", "3.12.2"},
		{"go version go1.25.6 linux/amd64", "1.25.6"},
		{"tool 7", "7.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			v, err := ExtractVersion(tt.output)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}

	_, err := ExtractVersion("no digits here")
	assert.Error(t, err)
}

func TestPlatformInfo(t *testing.T) {
	details, err := PlatformInfo(context.Background())
	require.NoError(t, err)
	for _, k := range []string{"os", "arch", "cpus", "go"} {
		assert.Contains(t, details, k)
	}
}

func TestToolVersion(t *testing.T) {
	c := New(Options{})

	t.Run("satisfied", func(t *testing.T) {
		details, err := c.ToolVersion(config.ToolRequirement{
			Name: "fake", Command: "echo v20.1.0", Constraint: ">= 18",
		})(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "20.1.0", details["version"])
	})

	t.Run("too old", func(t *testing.T) {
		_, err := c.ToolVersion(config.ToolRequirement{
			Name: "fake", Command: "echo v16.0.0", Constraint: ">= 18",
		})(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not satisfy >= 18")
	})

	t.Run("missing binary", func(t *testing.T) {
		_, err := c.ToolVersion(config.ToolRequirement{
			Name: "ghost", Command: "stackcheck-no-such-binary --version",
		})(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, task.ErrLaunch))
	})
}

func TestPlatformSuite_OneCasePerTool(t *testing.T) {
	c := New(Options{Tools: []config.ToolRequirement{
		{Name: "node", Command: "node --version"},
		{Name: "python", Command: "python3 --version"},
	}})
	s := c.PlatformSuite()
	assert.Equal(t, SuitePlatform, s.Name)
	require.Len(t, s.Cases, 3)
	assert.Equal(t, "platform info", s.Cases[0].Name)
	assert.Equal(t, "node version", s.Cases[1].Name)
}
