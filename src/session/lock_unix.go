//go:build unix

package session

import (
	"errors"
	"syscall"
)

func processAlive(pid int) (alive, known bool) {
	err := syscall.Kill(pid, 0)
	if err == nil || errors.Is(err, syscall.EPERM) {
		return true, true
	}
	return false, true
}
