package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/autods/autods/internal/catalog"
)

// Error markers emitted by the generated R script. The script fails
// through tryCatch with one of these prefixes on stderr so the Go side
// can classify the failure without parsing R condition objects.
const (
	markerImport     = "AUTODS_IMPORT_FAILURE"
	markerAttribute  = "AUTODS_ATTRIBUTE_FAILURE"
	markerInvocation = "AUTODS_INVOCATION_FAILURE"
)

// RExecutor invokes catalog functions that live in the foreign R
// runtime. Each call generates a self-contained script: load the
// package, resolve the callable, invoke it with the shaped arguments,
// print the result. All failures come back as normalized results.
type RExecutor struct {
	runner Runner
	logger *slog.Logger
}

// NewRExecutor creates an R executor on top of a runtime runner.
func NewRExecutor(runner Runner, logger *slog.Logger) *RExecutor {
	return &RExecutor{runner: runner, logger: logger}
}

// Execute shapes the arguments, generates the call script, runs it,
// and classifies the outcome.
func (e *RExecutor) Execute(ctx context.Context, descriptor *catalog.FunctionDescriptor, args *ArgumentMap) Result {
	shaped, err := buildRArguments(descriptor, args)
	if err != nil {
		return failure(ErrorConversion, fmt.Sprintf("cannot shape arguments for R: %v", err), "")
	}

	script := e.renderScript(descriptor, shaped)
	e.logger.Info("Executing R function", "package", descriptor.Package, "function", descriptor.Name)

	stdout, stderr, runErr := e.runner.Run(ctx, script)
	if runErr != nil || strings.Contains(stderr, "AUTODS_") {
		return e.classify(descriptor, stdout, stderr, runErr)
	}

	return Result{Success: true, Result: strings.TrimRight(stdout, "\n")}
}

// renderScript builds the R source for one invocation. Import and
// attribute resolution fail with marker-prefixed stops before the call
// itself runs; the call is wrapped separately so its errors classify
// as invocation failures.
func (e *RExecutor) renderScript(descriptor *catalog.FunctionDescriptor, shaped []rArgument) string {
	callArgs := make([]string, len(shaped))
	for i, arg := range shaped {
		callArgs[i] = fmt.Sprintf("%s = %s", arg.name, arg.expr)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "if (!suppressWarnings(requireNamespace(%q, quietly = TRUE))) {\n", descriptor.Package)
	fmt.Fprintf(&b, "  cat(\"%s: package '%s' is not available\\n\", file = stderr())\n", markerImport, descriptor.Package)
	b.WriteString("  quit(save = \"no\", status = 1)\n}\n")

	fmt.Fprintf(&b, ".fn <- tryCatch(get(%q, envir = asNamespace(%q)), error = function(e) NULL)\n", descriptor.Name, descriptor.Package)
	b.WriteString("if (is.null(.fn)) {\n")
	fmt.Fprintf(&b, "  cat(\"%s: function '%s' not found in package '%s'\\n\", file = stderr())\n", markerAttribute, descriptor.Name, descriptor.Package)
	b.WriteString("  quit(save = \"no\", status = 1)\n}\n")

	fmt.Fprintf(&b, ".result <- tryCatch(.fn(%s), error = function(e) {\n", strings.Join(callArgs, ", "))
	fmt.Fprintf(&b, "  cat(paste0(\"%s: \", conditionMessage(e), \"\\n\"), file = stderr())\n", markerInvocation)
	b.WriteString("  quit(save = \"no\", status = 1)\n})\n")

	if descriptor.Package == "stats" && descriptor.Name == "lm" {
		// Structured coefficient summary for the regression entry point.
		b.WriteString(".co <- stats::coef(.result)\n")
		b.WriteString("cat(sprintf(\"Intercept: %.6f\\n\", .co[[1]]))\n")
		b.WriteString("if (length(.co) > 1) cat(sprintf(\"Slope: %.6f\\n\", .co[[2]]))\n")
	} else {
		b.WriteString("print(.result)\n")
	}
	return b.String()
}

// classify maps marker-prefixed stderr output (or a bare runner error)
// to the normalized error shape. The full stderr text rides along as
// the diagnostic.
func (e *RExecutor) classify(descriptor *catalog.FunctionDescriptor, stdout, stderr string, runErr error) Result {
	diagnostic := strings.TrimSpace(stderr)
	if diagnostic == "" && runErr != nil {
		diagnostic = runErr.Error()
	}

	for _, entry := range []struct {
		marker string
		kind   ErrorKind
	}{
		{markerImport, ErrorImport},
		{markerAttribute, ErrorAttribute},
		{markerInvocation, ErrorInvocation},
	} {
		if idx := strings.Index(stderr, entry.marker); idx >= 0 {
			message := stderr[idx+len(entry.marker):]
			message = strings.TrimPrefix(message, ":")
			if end := strings.IndexByte(message, '\n'); end >= 0 {
				message = message[:end]
			}
			return failure(entry.kind, strings.TrimSpace(message), diagnostic)
		}
	}

	if runErr != nil {
		// The runtime itself failed to launch or died without a marker.
		e.logger.Error("R runtime call failed", "package", descriptor.Package, "function", descriptor.Name, "error", runErr)
		return failure(ErrorInvocation, fmt.Sprintf("R call failed: %v", runErr), diagnostic)
	}
	return failure(ErrorInvocation, "R call produced unexpected error output", diagnostic)
}

// unavailableRunner satisfies Runner when the R binary could not be
// located at startup; every call reports the missing runtime.
type unavailableRunner struct {
	reason error
}

// NewUnavailableRunner returns a Runner whose calls always fail with
// the given reason, normalized by RExecutor to an import failure.
func NewUnavailableRunner(reason error) Runner {
	return unavailableRunner{reason: reason}
}

func (r unavailableRunner) Run(context.Context, string) (string, string, error) {
	return "", markerImport + ": " + r.reason.Error() + "\n", r.reason
}
