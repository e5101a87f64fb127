package address

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// Kind enumerates the supported address families.
type Kind int

const (
	// KindUnix is a filesystem or abstract-namespace Unix socket.
	KindUnix Kind = iota
	// KindTCP is a TCP endpoint given as host:port.
	KindTCP
	// KindExec starts the service executable with a pre-opened listener
	// on fd 3. Client-side only.
	KindExec
	// KindBridge runs a command and speaks varlink over its stdio.
	// Client-side only.
	KindBridge
)

// Address is the parsed form of a varlink address string.
type Address struct {
	Kind Kind

	// Unix socket path, without the leading '@' for abstract sockets.
	Path     string
	Abstract bool
	// Octal file mode from a ';mode=' suffix, empty when not given.
	Mode string

	Host string
	Port string

	// Command line for exec: and bridge: addresses.
	Argv []string

	raw string
}

// Parse parses an address string of one of the forms
// unix:<path>[;mode=<octal>], unix:@<name>, tcp:<host>:<port>,
// exec:<command line> or bridge:<command line>.
func Parse(address string) (addr *Address, err error) {
	scheme, rest := splitScheme(address)
	addr = &Address{raw: address}

	switch scheme {
	case "unix":
		addr.Kind = KindUnix
		if m := strings.LastIndex(rest, ";mode="); m != -1 {
			addr.Mode = rest[m+len(";mode="):]
			rest = rest[:m]
		}
		if strings.HasPrefix(rest, "@") {
			addr.Abstract = true
			addr.Mode = ""
			rest = rest[1:]
		}
		if rest == "" {
			err = invalidAddress(address)
			return
		}
		addr.Path = rest

	case "tcp":
		addr.Kind = KindTCP
		p := strings.LastIndex(rest, ":")
		if p == -1 {
			err = invalidAddress(address)
			return
		}
		addr.Port = rest[p+1:]
		host := rest[:p]
		host = strings.Replace(host, "[", "", 1)
		host = strings.Replace(host, "]", "", 1)
		if host == "" || addr.Port == "" {
			err = invalidAddress(address)
			return
		}
		addr.Host = host

	case "exec":
		addr.Kind = KindExec
		addr.Argv, err = shlex.Split(rest)
		if err == nil && len(addr.Argv) == 0 {
			err = invalidAddress(address)
		}

	case "bridge":
		addr.Kind = KindBridge
		addr.Argv, err = shlex.Split(rest)
		if err == nil && len(addr.Argv) == 0 {
			err = invalidAddress(address)
		}

	default:
		err = invalidAddress(address)
	}
	return
}

func (a *Address) String() string {
	return a.raw
}

func splitScheme(address string) (scheme string, rest string) {
	colon := strings.Index(address, ":")
	if colon == -1 {
		return "", address
	}
	return address[:colon], address[colon+1:]
}

func invalidAddress(address string) error {
	return fmt.Errorf("Invalid address '%s'", address)
}
