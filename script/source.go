package script

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

// LoadSource reads a script from disk, falling back to the embedded copy
// under scripts/.
func LoadSource(name string) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("script: empty script path")
	}
	if data, err := os.ReadFile(name); err == nil {
		return data, nil
	}
	data, err := ScriptsFS.ReadFile(cleanScriptPath(name))
	if err != nil {
		return nil, fmt.Errorf("script: load %s: %w", name, err)
	}
	return data, nil
}

func cleanScriptPath(path string) string {
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "script/"); ok {
		s = after
	}
	if after, ok := strings.CutPrefix(s, "scripts/"); ok {
		s = after
	}
	return "scripts/" + s
}
