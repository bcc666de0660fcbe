package rewrite

import (
	"fmt"

	"github.com/albertocavalcante/go-nodetransform/mappings"
	"github.com/albertocavalcante/go-nodetransform/specifier"
)

// Kind is the outcome of classifying a resolved specifier.
type Kind int

const (
	// Unresolved leaves the source string as written.
	Unresolved Kind = iota
	// Relative points at another output file.
	Relative
	// Bare names a package.
	Bare
)

func (k Kind) String() string {
	switch k {
	case Unresolved:
		return "unresolved"
	case Relative:
		return "relative"
	case Bare:
		return "bare"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Classification is the replacement chosen for one source string.
type Classification struct {
	Kind Kind

	// Text is the replacement specifier. Empty for Unresolved.
	Text string

	// Package is the mapped package for Bare classifications.
	Package MappedSpecifier
}

// Classifier decides what a resolved specifier becomes in output.
// It only reads its fields and is safe for concurrent use.
type Classifier struct {
	Mappings          *mappings.Mappings
	SpecifierMappings map[specifier.Specifier]MappedSpecifier
}

// Classify returns the replacement for target as imported by referrer.
// Mapped targets become bare package references. Targets with an output path
// become relative references from the referrer's output path. Anything else
// is Unresolved.
func (c *Classifier) Classify(target, referrer specifier.Specifier) Classification {
	if pkg, ok := c.SpecifierMappings[target]; ok {
		return Classification{Kind: Bare, Text: pkg.ImportText(), Package: pkg}
	}
	if c.Mappings == nil {
		return Classification{}
	}
	to, ok := c.Mappings.FilePath(target)
	if !ok {
		return Classification{}
	}
	from, ok := c.Mappings.FilePath(referrer)
	if !ok {
		return Classification{}
	}
	return Classification{Kind: Relative, Text: mappings.RelativeSpecifier(from, to)}
}
