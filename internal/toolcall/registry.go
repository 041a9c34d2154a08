package toolcall

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed registry.yaml
var registryYAML []byte

// ToolKind classifies the input the tool expects.
type ToolKind string

const (
	KindImage     ToolKind = "image"
	KindVideo     ToolKind = "video"
	KindImagePair ToolKind = "image_pair"
)

// ToolDef describes one entry in the fixed vision tool registry (§4.7).
type ToolDef struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Kind        ToolKind `yaml:"kind"`
}

type registryDoc struct {
	Tools []ToolDef `yaml:"tools"`
}

var registry = mustLoadRegistry()

func mustLoadRegistry() []ToolDef {
	var doc registryDoc
	if err := yaml.Unmarshal(registryYAML, &doc); err != nil {
		panic("toolcall: invalid registry.yaml: " + err.Error())
	}
	return doc.Tools
}

// Registry returns the fixed vision tool list.
func Registry() []ToolDef {
	return registry
}

// Lookup finds a tool definition by name.
func Lookup(name string) (ToolDef, bool) {
	for _, t := range registry {
		if t.Name == name {
			return t, true
		}
	}
	return ToolDef{}, false
}
