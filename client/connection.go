package client

import (
	"encoding/json"
	"io"

	"varlink.org/varlink/common/idl"
	"varlink.org/varlink/common/protocol"
	. "varlink.org/varlink/common/util"
)

// Connection is one open connection to a service, bound to an
// interface. A connection carries at most one call in flight; starting
// a second call before the first completed fails with
// ErrCallInProgress.
type Connection struct {
	rwc    io.ReadWriteCloser
	reader *protocol.FrameReader
	writer *protocol.FrameWriter
	iface  *idl.Interface
	inUse  bool
}

func newConnection(rwc io.ReadWriteCloser) *Connection {
	return &Connection{
		rwc:    rwc,
		reader: protocol.NewFrameReader(rwc),
		writer: protocol.NewFrameWriter(rwc),
	}
}

// Interface returns the interface definition this connection is bound
// to.
func (c *Connection) Interface() *idl.Interface {
	return c.iface
}

func (c *Connection) Close() error {
	return c.rwc.Close()
}

// Call invokes a method expecting a single reply and returns its
// validated output parameters.
func (c *Connection) Call(methodName string, parameters map[string]interface{}) (map[string]interface{}, error) {
	return c.callWith(c.iface, methodName, parameters)
}

// CallOneway invokes a method without expecting a reply. The
// connection is immediately ready for the next call.
func (c *Connection) CallOneway(methodName string, parameters map[string]interface{}) (err error) {
	_, err = c.sendCall(c.iface, methodName, parameters, false, true)
	return
}

// CallMore invokes a method requesting a stream of replies and returns
// a lazy iterator over them.
func (c *Connection) CallMore(methodName string, parameters map[string]interface{}) (stream *More, err error) {
	method, err := c.sendCall(c.iface, methodName, parameters, true, false)
	if err != nil {
		return
	}
	c.inUse = true
	stream = &More{conn: c, method: method}
	return
}

func (c *Connection) callWith(iface *idl.Interface, methodName string, parameters map[string]interface{}) (out map[string]interface{}, err error) {
	method, err := c.sendCall(iface, methodName, parameters, false, false)
	if err != nil {
		return
	}

	c.inUse = true
	reply, err := c.nextReply()
	if err != nil {
		return
	}
	if reply.Continues {
		// a continues flag on a single-reply call is a protocol error
		c.Close()
		c.inUse = false
		err = ErrContinuesWithoutMore
		return
	}
	c.inUse = false

	out, err = c.filterReply(iface, method, reply)
	return
}

func (c *Connection) sendCall(iface *idl.Interface, methodName string, parameters map[string]interface{}, more, oneway bool) (method *idl.Method, err error) {
	if c.inUse {
		err = ErrCallInProgress
		return
	}
	method, err = iface.GetMethod(methodName)
	if err != nil {
		return
	}
	filtered, err := iface.FilterParams("client.call", method.In, parameters)
	if err != nil {
		return
	}
	params, _ := filtered.(map[string]interface{})

	message := &protocol.ServiceCall{
		Method: iface.Name + "." + methodName,
		More:   more,
		Oneway: oneway,
	}
	if len(params) > 0 {
		message.Parameters = params
	}
	if writeErr := c.writer.WriteFrame(message); writeErr != nil {
		method = nil
		err = ErrDisconnected
	}
	return
}

// nextReply reads one reply frame, turning error replies into
// ServiceError values and clearing the in-flight flag on failure.
func (c *Connection) nextReply() (reply *protocol.ServiceReply, err error) {
	frame, readErr := c.reader.ReadFrame()
	if readErr != nil {
		c.inUse = false
		if readErr == io.EOF {
			err = ErrDisconnected
			return
		}
		err = readErr
		return
	}

	reply = &protocol.ServiceReply{}
	if err = json.Unmarshal(frame, reply); err != nil {
		c.inUse = false
		reply = nil
		return
	}
	if reply.Error != "" {
		c.inUse = false
		err = protocol.ErrorFromReply(reply)
		reply = nil
		return
	}
	return
}

func (c *Connection) filterReply(iface *idl.Interface, method *idl.Method, reply *protocol.ServiceReply) (out map[string]interface{}, err error) {
	parameters := reply.Parameters
	if parameters == nil {
		parameters = map[string]interface{}{}
	}
	filtered, err := iface.FilterParams("client.reply", method.Out, parameters)
	if err != nil {
		return
	}
	out, _ = filtered.(map[string]interface{})
	return
}

// More iterates the replies of a streaming call. The stream ends after
// the first reply without continues, with io.EOF on later calls.
type More struct {
	conn   *Connection
	method *idl.Method
	done   bool
}

// Next returns the next validated reply. io.EOF reports a finished
// stream; any other error terminates it.
func (m *More) Next() (out map[string]interface{}, err error) {
	if m.done {
		err = io.EOF
		return
	}

	reply, err := m.conn.nextReply()
	if err != nil {
		m.done = true
		return
	}
	if !reply.Continues {
		m.done = true
		m.conn.inUse = false
	}

	out, err = m.conn.filterReply(m.conn.iface, m.method, reply)
	if err != nil {
		m.done = true
	}
	return
}
