package executor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/autods/autods/internal/catalog"
)

// Handler is one invocable native function. Arguments arrive as named
// values; the handler validates and coerces them itself.
type Handler func(args map[string]any) (any, error)

// GoExecutor dispatches catalog functions declared with the native
// language to an explicit in-process registry keyed by package and
// function name. The registry stands in for reflective module lookup:
// it is populated once at startup and read-only afterwards.
type GoExecutor struct {
	packages map[string]map[string]Handler
	logger   *slog.Logger
}

// NewGoExecutor creates a native executor with the builtin statistics
// packages registered.
func NewGoExecutor(logger *slog.Logger) *GoExecutor {
	e := &GoExecutor{
		packages: make(map[string]map[string]Handler),
		logger:   logger,
	}
	registerBuiltins(e)
	return e
}

// RegisterPackage adds (or extends) a named package of handlers.
func (e *GoExecutor) RegisterPackage(name string, functions map[string]Handler) {
	pkg, ok := e.packages[name]
	if !ok {
		pkg = make(map[string]Handler, len(functions))
		e.packages[name] = pkg
	}
	for fn, handler := range functions {
		pkg[fn] = handler
	}
	e.logger.Debug("Registered native package", "package", name, "functions", len(functions))
}

// Execute resolves the descriptor's package and function in the
// registry and invokes the handler with the argument map. Resolution
// failures and handler panics are normalized, never re-raised.
func (e *GoExecutor) Execute(ctx context.Context, descriptor *catalog.FunctionDescriptor, args *ArgumentMap) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Native handler panicked", "package", descriptor.Package, "function", descriptor.Name, "panic", r)
			result = failure(ErrorInvocation, fmt.Sprintf("%s.%s panicked: %v", descriptor.Package, descriptor.Name, r), string(debug.Stack()))
		}
	}()

	pkg, ok := e.packages[descriptor.Package]
	if !ok {
		return failure(ErrorImport, fmt.Sprintf("package %q is not registered in the native runtime", descriptor.Package), "")
	}

	handler, ok := e.lookup(pkg, descriptor.Name)
	if !ok {
		return failure(ErrorAttribute, fmt.Sprintf("function %q not found in package %q", descriptor.Name, descriptor.Package), "")
	}

	named := make(map[string]any, args.Len())
	for pair := args.Oldest(); pair != nil; pair = pair.Next() {
		named[pair.Key] = pair.Value
	}

	e.logger.Info("Executing native function", "package", descriptor.Package, "function", descriptor.Name)

	value, err := handler(named)
	if err != nil {
		return failure(ErrorInvocation, err.Error(), fmt.Sprintf("%s.%s(%v)", descriptor.Package, descriptor.Name, named))
	}

	return Result{Success: true, Result: fmt.Sprintf("%v", value)}
}

// lookup supports one level of dotted nesting: "Model.fit" resolves to
// the handler registered under the full dotted name, or failing that,
// under the trailing segment.
func (e *GoExecutor) lookup(pkg map[string]Handler, name string) (Handler, bool) {
	if handler, ok := pkg[name]; ok {
		return handler, true
	}
	if idx := strings.Index(name, "."); idx >= 0 {
		if handler, ok := pkg[name[idx+1:]]; ok {
			return handler, true
		}
	}
	return nil, false
}
