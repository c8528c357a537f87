package builtin

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// maxSignal is the highest signal number the kernel accepts (SIGRTMAX).
const maxSignal = 64

// parseSignal accepts a signal number, a name with or without the SIG
// prefix, in any case: "9", "KILL", "sigkill".
func parseSignal(spec string) (syscall.Signal, bool) {
	if spec == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(spec); err == nil {
		if n < 1 || n > maxSignal {
			return 0, false
		}
		return syscall.Signal(n), true
	}
	name := strings.ToUpper(spec)
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	sig := unix.SignalNum(name)
	return sig, sig != 0
}

// listSignals writes "N) SIGNAME" for every named signal.
func listSignals(w io.Writer) {
	for n := 1; n <= maxSignal; n++ {
		if name := unix.SignalName(syscall.Signal(n)); name != "" {
			fmt.Fprintf(w, "%d) %s\n", n, name)
		}
	}
}
