package catalog

import "errors"

// Language identifies the runtime a catalog function executes in.
type Language string

const (
	LanguageGo Language = "go" // native runtime, dispatched via the in-process registry
	LanguageR  Language = "r"  // foreign runtime, dispatched via the Rscript bridge
)

// ErrNotFound is returned when no descriptor matches a lookup.
var ErrNotFound = errors.New("function not found")

// Parameter describes one formal parameter of a catalog function.
// Defaults are stored as text regardless of the source runtime, so an R
// default of NULL and a scraped "None" both arrive here as strings.
type Parameter struct {
	Name       string `json:"name"`
	HasDefault bool   `json:"has_default"`
	Default    string `json:"default,omitempty"`
}

// Required reports whether the parameter must be supplied by the caller.
// A parameter counts as required when it has no default at all, or when
// the recorded default is one of the textual empty sentinels.
func (p Parameter) Required() bool {
	if !p.HasDefault {
		return true
	}
	switch p.Default {
	case "", "None", "NULL":
		return true
	}
	return false
}

// FunctionDescriptor is one catalog record describing an invocable
// function. DisplayKey is unique across the catalog and doubles as the
// embedding input and the join key from the vector index back into the
// store. Descriptors are immutable once stored.
type FunctionDescriptor struct {
	DisplayKey  string      `json:"key"`
	Language    Language    `json:"language"`
	Package     string      `json:"package"`
	Name        string      `json:"function"`
	Parameters  []Parameter `json:"parameters,omitempty"`
	Signature   string      `json:"signature,omitempty"`
	Description string      `json:"description,omitempty"`
}

// RequiredParameters returns the descriptor's required parameters in
// declaration order.
func (d *FunctionDescriptor) RequiredParameters() []Parameter {
	var required []Parameter
	for _, p := range d.Parameters {
		if p.Required() {
			required = append(required, p)
		}
	}
	return required
}

// Store is the catalog lookup surface the resolution pipeline depends
// on. Population happens in bulk (ReplaceAll) or record by record
// (Put); each record is written at most once per population run.
type Store interface {
	// Get returns the descriptor stored under the exact display key.
	Get(key string) (*FunctionDescriptor, error)

	// FindByFunction returns all descriptors for a package-qualified
	// function name in the given language.
	FindByFunction(language Language, pkg, name string) ([]*FunctionDescriptor, error)

	// FindByKeyPattern returns all descriptors of one language whose
	// display key matches the regular expression.
	FindByKeyPattern(language Language, pattern string) ([]*FunctionDescriptor, error)

	// List enumerates every descriptor in the catalog.
	List() ([]*FunctionDescriptor, error)

	// Put inserts or replaces a single descriptor keyed by DisplayKey.
	Put(descriptor *FunctionDescriptor) error

	// ReplaceAll clears the catalog and inserts the given descriptors.
	ReplaceAll(descriptors []*FunctionDescriptor) error

	// Count returns the number of stored descriptors.
	Count() (int, error)
}
