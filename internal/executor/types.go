package executor

import (
	"context"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/autods/autods/internal/catalog"
)

// ErrorKind classifies a normalized execution failure.
type ErrorKind string

const (
	ErrorImport     ErrorKind = "import_failure"     // target package unavailable at execute time
	ErrorAttribute  ErrorKind = "attribute_failure"  // callable not found in the package
	ErrorInvocation ErrorKind = "invocation_failure" // callable raised during execution
	ErrorConversion ErrorKind = "conversion_failure" // argument could not be shaped for the runtime
)

// ArgumentMap is the ordered parameter-name-to-value mapping handed to
// an executor. Insertion order is the call order rendered into code
// snippets and foreign-runtime scripts.
type ArgumentMap = orderedmap.OrderedMap[string, any]

// NewArgumentMap creates an empty ordered argument map.
func NewArgumentMap() *ArgumentMap {
	return orderedmap.New[string, any]()
}

// Result is the normalized outcome of one function invocation. Every
// failure mode is captured here; executors never panic or return raw
// errors past their boundary.
type Result struct {
	Success    bool      `json:"success"`
	Result     string    `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
	ErrorKind  ErrorKind `json:"error_kind,omitempty"`
	Diagnostic string    `json:"diagnostic,omitempty"`
}

// Executor invokes a resolved catalog function with a final argument
// map. One implementation exists per target runtime.
type Executor interface {
	Execute(ctx context.Context, descriptor *catalog.FunctionDescriptor, args *ArgumentMap) Result
}

func failure(kind ErrorKind, message, diagnostic string) Result {
	return Result{Error: message, ErrorKind: kind, Diagnostic: diagnostic}
}
