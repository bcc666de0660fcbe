package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/albertocavalcante/go-nodetransform"
)

type yamlFile struct {
	EntryPoints       []string               `yaml:"entryPoints"`
	TestEntryPoints   []string               `yaml:"testEntryPoints"`
	SpecifierMappings map[string]yamlPackage `yaml:"specifierMappings"`
	Redirects         map[string]string      `yaml:"redirects"`
	Shims             []yamlShim             `yaml:"shims"`
	TestShims         []yamlShim             `yaml:"testShims"`
	OutDir            string                 `yaml:"outDir"`
}

type yamlPackage struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	SubPath string `yaml:"subPath"`
}

type yamlShim struct {
	Package string       `yaml:"package"`
	Version string       `yaml:"version"`
	SubPath string       `yaml:"subPath"`
	Globals []yamlGlobal `yaml:"globals"`
}

// yamlGlobal is written either as a bare name or as a mapping with name,
// exportName and typeOnly.
type yamlGlobal struct {
	Name       string `yaml:"name"`
	ExportName string `yaml:"exportName"`
	TypeOnly   bool   `yaml:"typeOnly"`
}

// UnmarshalYAML implements yaml.Unmarshaler for yamlGlobal.
func (g *yamlGlobal) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&g.Name)
	}
	type plain yamlGlobal
	return value.Decode((*plain)(g))
}

// ParseYAML parses a YAML config. filename is used in error messages.
// Unknown fields are rejected. Relative references are returned as written.
func ParseYAML(filename string, data []byte) (*Config, error) {
	var yf yamlFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&yf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", filename, err)
	}

	c := &Config{
		EntryPoints:     yf.EntryPoints,
		TestEntryPoints: yf.TestEntryPoints,
		Redirects:       yf.Redirects,
		OutDir:          yf.OutDir,
	}
	if len(yf.SpecifierMappings) > 0 {
		c.SpecifierMappings = make(map[string]nodetransform.MappedSpecifier, len(yf.SpecifierMappings))
		for _, spec := range sortedKeys(yf.SpecifierMappings) {
			p := yf.SpecifierMappings[spec]
			if p.Name == "" {
				return nil, &Error{File: filename, Msg: fmt.Sprintf("specifierMappings: %s has no name", spec)}
			}
			c.SpecifierMappings[spec] = nodetransform.MappedSpecifier{Name: p.Name, Version: p.Version, SubPath: p.SubPath}
		}
	}

	var err error
	if c.Shims, err = yamlShims(filename, "shims", yf.Shims); err != nil {
		return nil, err
	}
	if c.TestShims, err = yamlShims(filename, "testShims", yf.TestShims); err != nil {
		return nil, err
	}
	return c, nil
}

func yamlShims(filename, field string, in []yamlShim) ([]nodetransform.Shim, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]nodetransform.Shim, 0, len(in))
	for i, s := range in {
		if s.Package == "" {
			return nil, &Error{File: filename, Msg: fmt.Sprintf("%s[%d]: package is required", field, i)}
		}
		if len(s.Globals) == 0 {
			return nil, &Error{File: filename, Msg: fmt.Sprintf("%s[%d]: globals is required", field, i)}
		}
		shim := nodetransform.Shim{
			Package: nodetransform.MappedSpecifier{Name: s.Package, Version: s.Version, SubPath: s.SubPath},
		}
		for _, g := range s.Globals {
			if g.Name == "" {
				return nil, &Error{File: filename, Msg: fmt.Sprintf("%s[%d]: global without a name", field, i)}
			}
			shim.GlobalNames = append(shim.GlobalNames, nodetransform.GlobalName{
				Name:       g.Name,
				ExportName: g.ExportName,
				TypeOnly:   g.TypeOnly,
			})
		}
		out = append(out, shim)
	}
	return out, nil
}
