package config

import (
	"fmt"

	"github.com/bazelbuild/buildtools/build"

	"github.com/albertocavalcante/go-nodetransform"
	"github.com/albertocavalcante/go-nodetransform/internal/buildutil"
)

// ParseStarlark parses a Starlark config. filename is used in error messages.
// Relative references are returned as written.
func ParseStarlark(filename string, data []byte) (*Config, error) {
	f, err := build.ParseDefault(filename, data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", filename, err)
	}

	c := &Config{}
	for _, stmt := range f.Stmt {
		if _, ok := stmt.(*build.CommentBlock); ok {
			continue
		}
		call, ok := stmt.(*build.CallExpr)
		if !ok {
			return nil, &Error{File: filename, Line: buildutil.Line(stmt), Msg: "only function calls are allowed"}
		}
		if err := c.apply(call); err != nil {
			return nil, &Error{File: filename, Line: buildutil.Line(call), Msg: err.Error()}
		}
	}
	return c, nil
}

func (c *Config) apply(call *build.CallExpr) error {
	switch name := buildutil.FuncName(call); name {
	case "entry_point", "test_entry_point":
		if err := buildutil.CheckKeywords(call, 1, "specifier"); err != nil {
			return err
		}
		spec, err := requiredString(call, "specifier", 0)
		if err != nil {
			return err
		}
		if name == "entry_point" {
			c.EntryPoints = append(c.EntryPoints, spec)
		} else {
			c.TestEntryPoints = append(c.TestEntryPoints, spec)
		}

	case "specifier_mapping":
		if err := buildutil.CheckKeywords(call, 2, "specifier", "name", "version", "sub_path"); err != nil {
			return err
		}
		spec, err := requiredString(call, "specifier", 0)
		if err != nil {
			return err
		}
		pkg, err := mappedSpecifier(call, "name", 1)
		if err != nil {
			return err
		}
		if _, dup := c.SpecifierMappings[spec]; dup {
			return fmt.Errorf("specifier_mapping: %s mapped twice", spec)
		}
		if c.SpecifierMappings == nil {
			c.SpecifierMappings = make(map[string]nodetransform.MappedSpecifier)
		}
		c.SpecifierMappings[spec] = pkg

	case "redirect":
		if err := buildutil.CheckKeywords(call, 2, "source", "target"); err != nil {
			return err
		}
		from, err := requiredString(call, "source", 0)
		if err != nil {
			return err
		}
		to, err := requiredString(call, "target", 1)
		if err != nil {
			return err
		}
		if c.Redirects == nil {
			c.Redirects = make(map[string]string)
		}
		c.Redirects[from] = to

	case "shim", "test_shim":
		if err := buildutil.CheckKeywords(call, 0, "package", "version", "sub_path", "globals", "type_globals", "export_names"); err != nil {
			return err
		}
		pkg, err := mappedSpecifier(call, "package", -1)
		if err != nil {
			return err
		}
		globals, err := buildutil.StringList(call, "globals", -1)
		if err != nil {
			return err
		}
		typeGlobals, err := buildutil.StringList(call, "type_globals", -1)
		if err != nil {
			return err
		}
		if len(globals)+len(typeGlobals) == 0 {
			return fmt.Errorf("%s: at least one of globals or type_globals is required", name)
		}
		exportNames, err := buildutil.StringDict(call, "export_names", -1)
		if err != nil {
			return err
		}
		shim := shimFromGlobals(pkg, globals, typeGlobals, exportNames)
		if name == "shim" {
			c.Shims = append(c.Shims, shim)
		} else {
			c.TestShims = append(c.TestShims, shim)
		}

	case "output":
		if err := buildutil.CheckKeywords(call, 1, "dir"); err != nil {
			return err
		}
		dir, err := requiredString(call, "dir", 0)
		if err != nil {
			return err
		}
		c.OutDir = dir

	case "":
		return fmt.Errorf("unsupported call expression")
	default:
		return fmt.Errorf("unknown function %q", name)
	}
	return nil
}

func requiredString(call *build.CallExpr, name string, pos int) (string, error) {
	v, err := buildutil.String(call, name, pos)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%s: %s is required", buildutil.FuncName(call), name)
	}
	return v, nil
}

// mappedSpecifier reads a package reference whose name is the nameArg
// argument, plus the optional version and sub_path arguments.
func mappedSpecifier(call *build.CallExpr, nameArg string, pos int) (nodetransform.MappedSpecifier, error) {
	var pkg nodetransform.MappedSpecifier
	var err error
	if pkg.Name, err = requiredString(call, nameArg, pos); err != nil {
		return pkg, err
	}
	if pkg.Version, err = buildutil.String(call, "version", -1); err != nil {
		return pkg, err
	}
	if pkg.SubPath, err = buildutil.String(call, "sub_path", -1); err != nil {
		return pkg, err
	}
	return pkg, nil
}
