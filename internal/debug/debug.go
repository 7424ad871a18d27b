// Package debug provides the opt-in diagnostic log used by the indexer and
// the server. Output is disabled until a writer is configured, so the query
// hot path never pays for formatting.
package debug

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var (
	mu     sync.Mutex
	output io.Writer
)

// SetOutput directs debug output to w. Pass nil to disable.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Enabled reports whether debug output is being written anywhere.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return output != nil
}

// Logf writes one timestamped line when debug output is enabled.
func Logf(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if output == nil {
		return
	}
	fmt.Fprintf(output, "[%s] %s\n", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, args...))
}
