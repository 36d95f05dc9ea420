package workflow_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetze/ghaudit/internal/usecase/workflow"
)

func TestDiagramRenderer_WritesTimestampedHTML(t *testing.T) {
	dir := t.TempDir()
	renderer := workflow.NewDiagramRenderer(dir)
	renderer.SetClock(func() time.Time {
		return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	})

	path, err := renderer.Render()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "workflow_diagram_20250314_092653.html"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "mermaid")
	assert.Contains(t, string(content), "verify_token[Verify Token]")
	assert.Contains(t, string(content), "suggest_remediation")
}

func TestMermaidDiagram_BranchesOnValidity(t *testing.T) {
	src := workflow.MermaidDiagram()
	assert.Contains(t, src, "-->|valid| finish")
	assert.Contains(t, src, "-->|invalid| suggest_remediation")
}

func TestDiagramRenderer_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	renderer := workflow.NewDiagramRenderer(dir)

	path, err := renderer.Render()
	require.NoError(t, err)
	assert.FileExists(t, path)
}
