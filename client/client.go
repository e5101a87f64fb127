package client

import (
	"io"

	lru "github.com/hashicorp/golang-lru"

	"varlink.org/varlink/common/address"
	"varlink.org/varlink/common/idl"
	"varlink.org/varlink/common/protocol"
	"varlink.org/varlink/common/socket"
)

// interfaceCacheSize bounds how many fetched interface definitions a
// client keeps parsed.
const interfaceCacheSize = 64

// DefaultResolverAddress is where the system-wide resolver listens.
const DefaultResolverAddress = "unix:/run/org.varlink.resolver"

// Client reaches the interfaces of a varlink service. Interface
// definitions are fetched through org.varlink.service introspection on
// first use and cached.
type Client struct {
	addr       *address.Address
	exec       *socket.ExecActivation
	interfaces *lru.Cache
}

// NewClient creates a client for the given address. An exec: address
// starts the service child once; its socket is dialed for every
// connection.
func NewClient(addressString string) (c *Client, err error) {
	addr, err := address.Parse(addressString)
	if err != nil {
		return
	}

	cache, err := lru.New(interfaceCacheSize)
	if err != nil {
		return
	}
	serviceInterface, err := idl.NewInterface(protocol.ServiceDescription)
	if err != nil {
		return
	}
	cache.Add(serviceInterface.Name, serviceInterface)

	c = &Client{addr: addr, interfaces: cache}

	if addr.Kind == address.KindExec {
		c.exec, err = socket.StartExec(addr.Argv)
		if err != nil {
			c = nil
			return
		}
		c.addr, err = address.Parse(c.exec.Address)
		if err != nil {
			c.exec.Close()
			c = nil
			return
		}
	}
	return
}

// NewResolvedClient creates a client for the service implementing
// interfaceName, looked up through the varlink resolver.
func NewResolvedClient(interfaceName, resolverAddress string) (c *Client, err error) {
	if resolverAddress == "" {
		resolverAddress = DefaultResolverAddress
	}
	if interfaceName == "org.varlink.resolver" {
		return NewClient(resolverAddress)
	}

	resolver, err := NewClient(resolverAddress)
	if err != nil {
		return
	}
	defer resolver.Close()

	conn, err := resolver.Open("org.varlink.resolver")
	if err != nil {
		return
	}
	defer conn.Close()

	reply, err := conn.Call("Resolve", map[string]interface{}{"interface": interfaceName})
	if err != nil {
		return
	}
	resolved, _ := reply["address"].(string)
	return NewClient(resolved)
}

// Close terminates the service child of an exec: client and removes
// its socket. Connections opened from the client are not closed.
func (c *Client) Close() (err error) {
	if c.exec != nil {
		err = c.exec.Close()
	}
	return
}

// AddInterface installs an interface definition without fetching it
// from the service.
func (c *Client) AddInterface(iface *idl.Interface) {
	c.interfaces.Add(iface.Name, iface)
}

// Open dials a new connection bound to the named interface. The
// interface definition is fetched over the same connection when it is
// not yet cached.
func (c *Client) Open(interfaceName string) (conn *Connection, err error) {
	rwc, err := c.dial()
	if err != nil {
		return
	}
	conn = newConnection(rwc)

	iface, err := c.getInterface(conn, interfaceName)
	if err != nil {
		conn.Close()
		conn = nil
		return
	}
	conn.iface = iface
	return
}

// GetInfo asks the service for its vendor, product, version, url and
// interface list.
func (c *Client) GetInfo() (info map[string]interface{}, err error) {
	conn, err := c.Open(protocol.ServiceInterfaceName)
	if err != nil {
		return
	}
	defer conn.Close()
	info, err = conn.Call("GetInfo", nil)
	return
}

// GetInterfaceDescription fetches the source text of an interface
// implemented by the service.
func (c *Client) GetInterfaceDescription(interfaceName string) (description string, err error) {
	conn, err := c.Open(protocol.ServiceInterfaceName)
	if err != nil {
		return
	}
	defer conn.Close()
	reply, err := conn.Call("GetInterfaceDescription", map[string]interface{}{"interface": interfaceName})
	if err != nil {
		return
	}
	description, _ = reply["description"].(string)
	return
}

func (c *Client) dial() (rwc io.ReadWriteCloser, err error) {
	if c.addr.Kind == address.KindBridge {
		return socket.DialBridge(c.addr.Argv)
	}
	return socket.DialAddress(c.addr)
}

func (c *Client) getInterface(conn *Connection, name string) (iface *idl.Interface, err error) {
	if cached, ok := c.interfaces.Get(name); ok {
		iface = cached.(*idl.Interface)
		return
	}

	cached, _ := c.interfaces.Get(protocol.ServiceInterfaceName)
	serviceInterface, ok := cached.(*idl.Interface)
	if !ok {
		// evicted; reparse the built-in description
		serviceInterface, err = idl.NewInterface(protocol.ServiceDescription)
		if err != nil {
			return
		}
		c.interfaces.Add(serviceInterface.Name, serviceInterface)
	}

	reply, err := conn.callWith(serviceInterface, "GetInterfaceDescription", map[string]interface{}{"interface": name})
	if err != nil {
		return
	}
	description, _ := reply["description"].(string)
	iface, err = idl.NewInterface(description)
	if err != nil {
		return
	}
	c.interfaces.Add(iface.Name, iface)
	return
}
