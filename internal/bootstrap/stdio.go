// Package bootstrap holds the small amount of process setup that has to run
// before logging or the store can be trusted: making sure the standard file
// descriptors point to something.
package bootstrap

import (
	"fmt"
	"os"
	"syscall"
)

// EnsureStdio guarantees that file descriptors 0, 1, and 2 refer to an open
// file, dup'ing /dev/null onto any that don't.
//
// A parent process that execs this binary without stdio bound to anything
// leaves those descriptor numbers free for the next file this process
// opens — including a database file. Logging and error-reporting code that
// blindly writes to fd 2 would then corrupt that file instead, and on a
// parent with fewer privileges than this process, that is a privilege
// escalation. Stat each descriptor first; only the ones that don't resolve
// to anything get aliased to /dev/null.
func EnsureStdio() error {
	var devnull *os.File

	for fd := 0; fd <= 2; fd++ {
		var st syscall.Stat_t
		if err := syscall.Fstat(fd, &st); err == nil {
			continue
		} else if err != syscall.EBADF {
			return fmt.Errorf("bootstrap: stat fd %d: %w", fd, err)
		}

		if devnull == nil {
			f, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
			if err != nil {
				return fmt.Errorf("bootstrap: opening %s: %w", os.DevNull, err)
			}
			devnull = f
		}

		if err := syscall.Dup2(int(devnull.Fd()), fd); err != nil {
			return fmt.Errorf("bootstrap: dup2(%d, %d): %w", devnull.Fd(), fd, err)
		}
	}

	// devnull is intentionally left open rather than closed: closing it
	// here could close one of the stdio fds it was just dup'd onto.
	return nil
}
