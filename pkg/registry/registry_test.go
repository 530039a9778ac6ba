// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRegistry(t *testing.T) {
	path := writeRegistry(t, `{
		"version": "1.0.0",
		"activities": [
			{
				"id": "rank-matches",
				"taskType": "rank-matches",
				"category": "matching",
				"inputSchema": {"type": "object", "required": ["requirementId"]},
				"outputSchema": {"type": "object"}
			}
		]
	}`)

	reg, err := LoadRegistry(path)

	require.NoError(t, err)
	require.Len(t, reg.Activities, 1)

	activity, ok := reg.FindByTaskType("rank-matches")
	require.True(t, ok)
	assert.Equal(t, "matching", activity.Category)

	_, ok = reg.FindByTaskType("unknown")
	assert.False(t, ok)
}

func TestLoadRegistryRejectsDuplicateTaskTypes(t *testing.T) {
	path := writeRegistry(t, `{
		"activities": [
			{"id": "a", "taskType": "rank-matches"},
			{"id": "b", "taskType": "rank-matches"}
		]
	}`)

	_, err := LoadRegistry(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate task type")
}

func TestLoadRegistryRejectsMissingTaskType(t *testing.T) {
	path := writeRegistry(t, `{"activities": [{"id": "a"}]}`)

	_, err := LoadRegistry(path)

	require.Error(t, err)
}

func TestLoadRegistryRejectsBadSchema(t *testing.T) {
	path := writeRegistry(t, `{
		"activities": [
			{"id": "a", "taskType": "t", "inputSchema": {"type": 42}}
		]
	}`)

	_, err := LoadRegistry(path)

	require.Error(t, err)
}
