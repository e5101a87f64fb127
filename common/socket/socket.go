package socket

import (
	"net"
	"os"
	"strconv"

	. "varlink.org/varlink/common/address"
	. "varlink.org/varlink/common/util"
)

// Listen opens a listener for a unix: or tcp: address. A listener
// inherited through socket activation takes precedence over the
// address.
func Listen(addressString string) (listener net.Listener, err error) {
	if activated := ActivationListener(); activated != nil {
		listener = activated
		return
	}

	addr, err := Parse(addressString)
	if err != nil {
		return
	}

	switch addr.Kind {
	case KindUnix:
		if addr.Abstract {
			listener, err = net.Listen("unix", "@"+addr.Path)
			return
		}
		//	delete stale socket in case the service was not shut down cleanly
		_ = os.Remove(addr.Path)
		listener, err = net.Listen("unix", addr.Path)
		if err != nil {
			return
		}
		if addr.Mode != "" {
			var mode uint64
			mode, err = strconv.ParseUint(addr.Mode, 8, 32)
			if err != nil {
				listener.Close()
				return
			}
			err = os.Chmod(addr.Path, os.FileMode(mode))
			if err != nil {
				listener.Close()
				return
			}
		}

	case KindTCP:
		listener, err = net.Listen("tcp", net.JoinHostPort(addr.Host, addr.Port))

	default:
		err = ErrConnectingToService
	}
	return
}

// Dial connects to a unix: or tcp: address.
func Dial(addressString string) (conn net.Conn, err error) {
	addr, err := Parse(addressString)
	if err != nil {
		return
	}
	conn, err = DialAddress(addr)
	return
}

// DialAddress connects to an already parsed unix: or tcp: address.
func DialAddress(addr *Address) (conn net.Conn, err error) {
	switch addr.Kind {
	case KindUnix:
		path := addr.Path
		if addr.Abstract {
			path = "@" + path
		}
		conn, err = net.Dial("unix", path)
	case KindTCP:
		conn, err = net.Dial("tcp", net.JoinHostPort(addr.Host, addr.Port))
	default:
		err = ErrConnectingToService
	}
	if err != nil {
		err = ErrConnectingToService
	}
	return
}
