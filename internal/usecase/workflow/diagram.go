package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// MermaidDiagram returns the mermaid source describing the workflow graph.
func MermaidDiagram() string {
	return `graph TD
    start([Start]) --> verify_token[Verify Token]
    verify_token --> analyze_result[Analyze Result]
    analyze_result -->|valid| finish([End])
    analyze_result -->|invalid| suggest_remediation[Suggest Remediation]
    suggest_remediation --> finish`
}

const diagramHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Token Verification Workflow</title>
    <script type="module">
        import mermaid from 'https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.esm.min.mjs';
        document.addEventListener('DOMContentLoaded', () => {
            mermaid.run();
        });
    </script>
    <style>
        body { font-family: sans-serif; display: flex; justify-content: center; margin: 0; background-color: #f4f4f4; }
        .mermaid { background-color: white; padding: 20px; border-radius: 8px; margin-top: 40px; }
    </style>
</head>
<body>
    <pre class="mermaid">
%s
    </pre>
</body>
</html>
`

// DiagramRenderer writes the workflow diagram as a standalone HTML page with
// a timestamped filename.
type DiagramRenderer struct {
	dir   string
	clock func() time.Time
}

// NewDiagramRenderer constructs a renderer writing into dir.
func NewDiagramRenderer(dir string) *DiagramRenderer {
	return &DiagramRenderer{
		dir:   dir,
		clock: time.Now,
	}
}

// SetClock overrides the timestamp source (for testing).
func (d *DiagramRenderer) SetClock(clock func() time.Time) {
	d.clock = clock
}

// Render writes the diagram and returns the path of the created file.
func (d *DiagramRenderer) Render() (string, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("create diagram directory: %w", err)
	}

	name := fmt.Sprintf("workflow_diagram_%s.html", d.clock().Format("20060102_150405"))
	path := filepath.Join(d.dir, name)

	content := fmt.Sprintf(diagramHTML, MermaidDiagram())
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write diagram: %w", err)
	}
	return path, nil
}
