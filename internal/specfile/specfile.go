// Package specfile loads workflow specs from YAML or JSON files and ships
// a small set of embedded preset workflows runnable by name.
package specfile

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"loom/pkg/flow"
)

//go:embed templates/*.yaml
var templatesFS embed.FS

// Load reads a GraphSpec from the file at path. The extension picks the
// decoder: .json is JSON, everything else YAML.
func Load(path string) (*flow.GraphSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec: %w", err)
	}
	spec, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return spec, nil
}

// Decode parses raw spec bytes with the decoder matching ext.
func Decode(data []byte, ext string) (*flow.GraphSpec, error) {
	var spec flow.GraphSpec
	var err error
	if strings.EqualFold(ext, ".json") {
		err = json.Unmarshal(data, &spec)
	} else {
		err = yaml.Unmarshal(data, &spec)
	}
	if err != nil {
		return nil, err
	}
	if len(spec.Nodes) == 0 {
		return nil, fmt.Errorf("spec declares no nodes")
	}
	if spec.ID == "" {
		spec.ID = strings.ToLower(strings.ReplaceAll(spec.Name, " ", "-"))
	}
	return &spec, nil
}

// Templates lists the embedded preset names, sorted.
func Templates() []string {
	entries, err := templatesFS.ReadDir("templates")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Template loads one embedded preset by name.
func Template(name string) (*flow.GraphSpec, error) {
	data, err := templatesFS.ReadFile("templates/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown template %q", name)
	}
	return Decode(data, ".yaml")
}
