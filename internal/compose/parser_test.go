package compose

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCompose(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docker-compose.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParse(t *testing.T) {
	path := writeCompose(t, `
version: "3.8"
services:
  kaspad:
    image: kaspanet/kaspad:v0.12.19
    container_name: ns-kaspad
    profiles: kaspa-node
  postgres:
    image: postgres:16
    profiles:
      - indexing
  indexer:
    image: ns/indexer:1.4.0
    depends_on:
      - kaspad
      - postgres
`)

	file, err := Parse(path)
	require.NoError(t, err)

	assert.Equal(t, "3.8", file.Version)
	require.Len(t, file.Services, 3)

	kaspad := file.Services["kaspad"]
	require.NotNil(t, kaspad)
	assert.Equal(t, "ns-kaspad", kaspad.ContainerName)
	assert.Equal(t, StringOrSlice{"kaspa-node"}, kaspad.Profiles)

	assert.Equal(t, StringOrSlice{"indexing"}, file.Services["postgres"].Profiles)
	assert.ElementsMatch(t, []string{"kaspad", "postgres"}, file.Services["indexer"].DependsOn)
}

func TestParseDependsOnConditionForm(t *testing.T) {
	path := writeCompose(t, `
services:
  indexer:
    image: ns/indexer:1.4.0
    depends_on:
      postgres:
        condition: service_healthy
      kaspad:
        condition: service_started
`)

	file, err := Parse(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"kaspad", "postgres"}, file.Services["indexer"].DependsOn)
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseInvalidYAML(t *testing.T) {
	path := writeCompose(t, "services: [not: a: mapping")
	_, err := Parse(path)
	assert.Error(t, err)
}

func TestHasService(t *testing.T) {
	path := writeCompose(t, `
services:
  kaspad:
    container_name: ns-kaspad
  postgres: {}
`)

	file, err := Parse(path)
	require.NoError(t, err)

	assert.True(t, file.HasService("kaspad"))
	assert.True(t, file.HasService("ns-kaspad"))
	assert.True(t, file.HasService("postgres"))
	assert.False(t, file.HasService("indexer"))
}

func TestServiceNames(t *testing.T) {
	path := writeCompose(t, `
services:
  kaspad: {}
  postgres: {}
`)

	file, err := Parse(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"kaspad", "postgres"}, file.ServiceNames())
}
