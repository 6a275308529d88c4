package function

// Language is an informational source-language tag on a Function
// descriptor. It has no bearing on how the compiled Wasm component is
// handled — every function, regardless of source language, is hosted
// identically once it is a valid component.
type Language string

const (
	LanguagePython Language = "python"
	LanguageRust   Language = "rust"
	LanguageGo     Language = "go"
)

// Function is the immutable-within-one-generation descriptor of a deployed
// Wasm component. It never embeds the live component; the compiled
// artifact lives in the Component Cache, keyed by Name.
type Function struct {
	Name       string   `json:"name" yaml:"name"`
	Language   Language `json:"language" yaml:"language"`
	Path       string   `json:"path" yaml:"path"`
	CPUHint    string   `json:"cpu_hint" yaml:"cpu_hint"`
	MemoryHint string   `json:"memory_hint" yaml:"memory_hint"`
	ReadOnly   bool     `json:"readonly" yaml:"readonly"`
}

// Validate checks the descriptor's own shape invariants, independent of any
// repository's uniqueness constraints.
func (f *Function) Validate() error {
	if f == nil {
		return Validation("function.Validate", "function is nil")
	}
	if f.Name == "" {
		return Validation("function.Validate", "name must not be empty")
	}
	if f.Path == "" {
		return Validation("function.Validate", "path must not be empty")
	}
	switch f.Language {
	case LanguagePython, LanguageRust, LanguageGo, "":
	default:
		return Validation("function.Validate", "unrecognized language tag: "+string(f.Language))
	}
	return nil
}

// Trigger binds an HTTP method+path to a function by name.
type Trigger struct {
	Name         string `json:"name" yaml:"name"`
	Method       Method `json:"method" yaml:"-"`
	Path         string `json:"path" yaml:"path"`
	FunctionName string `json:"function_name" yaml:"function_name"`
	ReadOnly     bool   `json:"readonly" yaml:"readonly"`
}

func (t *Trigger) Validate() error {
	if t == nil {
		return Validation("trigger.Validate", "trigger is nil")
	}
	if t.Name == "" {
		return Validation("trigger.Validate", "name must not be empty")
	}
	if t.Path == "" || t.Path[0] != '/' {
		return Validation("trigger.Validate", "path must be non-empty and start with /")
	}
	if t.FunctionName == "" {
		return Validation("trigger.Validate", "function_name must not be empty")
	}
	return nil
}

// RouteKey is the hash key of the Route Table: a normalized method variant
// plus an exact-match path string.
type RouteKey struct {
	Method Method
	Path   string
}

// NewRouteKey normalizes method and pairs it verbatim with path.
func NewRouteKey(method, path string) RouteKey {
	return RouteKey{Method: NormalizeMethod(method), Path: path}
}
