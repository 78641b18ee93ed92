package nodegraph

import (
	"fmt"
	"runtime"
	"strings"
)

// PanicLogger receives panics recovered on the session owner goroutine.
type PanicLogger func(funcName string, err any, stack []byte, fields ...map[string]any)

// LoggerPanicLogger reports recovered panics through logger.
func LoggerPanicLogger(logger Logger) PanicLogger {
	logger = normalizeLogger(logger)
	return func(funcName string, err any, stack []byte, fields ...map[string]any) {
		l := logger
		if len(fields) > 0 && fields[0] != nil {
			l = withLoggerFields(logger, fields[0])
		}
		l.Error("recovered from panic in %s: %v (%T)\n%s", funcName, err, err, stack)
	}
}

// recoverPanic must be deferred. It turns a panic into an error stored in
// errp so the owner goroutine keeps serving requests.
func recoverPanic(funcName string, logger PanicLogger, errp *error, fields map[string]any) {
	r := recover()
	if r == nil {
		return
	}
	fullStack := make([]byte, 8096)
	n := runtime.Stack(fullStack, false)
	stack := cleanStackTrace(fullStack[:n])
	if logger != nil {
		logger(funcName, r, stack, fields)
	}
	if errp != nil {
		*errp = cloneError(ErrOwnerPanic, fmt.Sprintf("panic in %s: %v", funcName, r), nil, fields)
	}
}

func cleanStackTrace(stack []byte) []byte {
	lines := strings.Split(string(stack), "\n")

	panicLineIndex := -1
	for i, line := range lines {
		if strings.Contains(line, "panic(") {
			panicLineIndex = i
			break
		}
	}

	// drop the panic() call line and its file reference
	if panicLineIndex >= 0 && panicLineIndex+2 < len(lines) {
		lines = lines[panicLineIndex+2:]
	}
	return []byte(strings.Join(lines, "\n"))
}
