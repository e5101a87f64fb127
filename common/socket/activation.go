package socket

import (
	"net"
	"os"
	"strconv"
	"strings"
)

const activationFdStart = 3

// ActivationListener returns the listener passed in through the
// systemd socket-activation protocol, or nil when the process was not
// activated. The LISTEN_* variables are cleared so child processes do
// not inherit them.
func ActivationListener() net.Listener {
	defer os.Unsetenv("LISTEN_PID")
	defer os.Unsetenv("LISTEN_FDS")
	defer os.Unsetenv("LISTEN_FDNAMES")

	pidValue, ok := os.LookupEnv("LISTEN_PID")
	if !ok {
		return nil
	}
	pid, err := strconv.Atoi(pidValue)
	if err != nil {
		return nil
	}
	// pid 0 means the spawner could not know our pid before exec
	if pid != 0 && pid != os.Getpid() {
		return nil
	}

	nfds, err := strconv.Atoi(os.Getenv("LISTEN_FDS"))
	if err != nil || nfds < 1 {
		return nil
	}

	fd := activationFdStart
	if nfds > 1 {
		names := strings.Split(os.Getenv("LISTEN_FDNAMES"), ":")
		if len(names) != nfds {
			return nil
		}
		fd = -1
		for i, name := range names {
			if name == "varlink" {
				fd = activationFdStart + i
				break
			}
		}
		if fd == -1 {
			return nil
		}
	}

	file := os.NewFile(uintptr(fd), "LISTEN_FD_"+strconv.Itoa(fd))
	listener, err := net.FileListener(file)
	file.Close()
	if err != nil {
		return nil
	}
	return listener
}
