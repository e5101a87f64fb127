// +build !windows

package socket

import (
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/satori/go.uuid"
)

// ExecActivation is a service child started with a pre-opened listener
// passed as fd 3, the way socket activation hands it over. Connections
// are dialed against Address for as long as the child runs.
type ExecActivation struct {
	Address string

	cmd        *exec.Cmd
	socketPath string
}

// StartExec creates a listening socket, spawns argv with the listener
// as fd 3 and the LISTEN_* activation environment, and returns the
// address to dial. "$VARLINK_ADDRESS" in the arguments is replaced
// with the actual address.
func StartExec(argv []string) (act *ExecActivation, err error) {
	socketPath := filepath.Join(os.TempDir(), "varlink-"+uuid.NewV4().String())
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return
	}
	unixListener := listener.(*net.UnixListener)
	unixListener.SetUnlinkOnClose(false)
	file, err := unixListener.File()
	if err != nil {
		listener.Close()
		os.Remove(socketPath)
		return
	}

	addressString := "unix:" + socketPath
	args := make([]string, len(argv))
	copy(args, argv)
	for i := 1; i < len(args); i++ {
		args[i] = strings.Replace(args[i], "$VARLINK_ADDRESS", addressString, -1)
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.ExtraFiles = []*os.File{file}
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		"VARLINK_ADDRESS="+addressString,
		"LISTEN_FDS=1",
		"LISTEN_FDNAMES=varlink",
		//	the child pid cannot be known before exec; 0 means "self"
		"LISTEN_PID=0",
	)

	err = cmd.Start()
	file.Close()
	listener.Close()
	if err != nil {
		os.Remove(socketPath)
		return
	}

	act = &ExecActivation{Address: addressString, cmd: cmd, socketPath: socketPath}
	return
}

// Close terminates the child and removes the socket.
func (a *ExecActivation) Close() (err error) {
	if a.cmd.Process != nil {
		a.cmd.Process.Kill()
		a.cmd.Wait()
	}
	err = os.Remove(a.socketPath)
	return
}

type bridgeConn struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

func (b *bridgeConn) Read(p []byte) (n int, err error) {
	return b.stdout.Read(p)
}

func (b *bridgeConn) Write(p []byte) (n int, err error) {
	return b.stdin.Write(p)
}

func (b *bridgeConn) Close() (err error) {
	b.stdin.Close()
	b.stdout.Close()
	if b.cmd.Process != nil {
		b.cmd.Process.Kill()
	}
	b.cmd.Wait()
	return
}

// DialBridge starts the bridge command and returns a connection that
// speaks varlink over the command's stdin and stdout. Each call starts
// a fresh bridge process.
func DialBridge(argv []string) (conn io.ReadWriteCloser, err error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return
	}
	err = cmd.Start()
	if err != nil {
		return
	}
	conn = &bridgeConn{cmd: cmd, stdin: stdin, stdout: stdout}
	return
}
