package provision

import (
	"fmt"
	"os"
	"sync"
)

// stdoutMu serialises redirection so overlapping runs cannot restore each
// other's streams out of order.
var stdoutMu sync.Mutex

// silenceStdout points os.Stdout at the null device and returns the function
// that restores it. Callers defer the restore so it runs on every exit path,
// panics included.
func silenceStdout() (restore func(), err error) {
	stdoutMu.Lock()

	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		stdoutMu.Unlock()
		return nil, fmt.Errorf("failed to open %s: %w", os.DevNull, err)
	}

	original := os.Stdout
	os.Stdout = devNull

	return func() {
		os.Stdout = original
		_ = devNull.Close()
		stdoutMu.Unlock()
	}, nil
}
