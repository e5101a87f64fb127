package service

import (
	"encoding/json"
	"fmt"
	"io"

	"varlink.org/varlink/common/idl"
	"varlink.org/varlink/common/protocol"
	. "varlink.org/varlink/common/util"
)

var errCallClosed = fmt.Errorf("reply sent after the final reply")
var errReplyWithoutMore = fmt.Errorf("intermediate reply to a call without 'more'")

// Call is the context of one in-progress method call. Handlers read
// their filtered inputs from In, consult the request flags, and reply
// through Reply and CloseWithReply.
type Call struct {
	// request flags
	More    bool
	Oneway  bool
	Upgrade bool

	// Raw is the original request frame, Message its decoded form.
	Raw     []byte
	Message *protocol.ServiceCall

	Interface *idl.Interface
	Method    *idl.Method

	// In holds the validated input parameters. Absent optional fields
	// are missing from the map.
	In map[string]interface{}

	// Conn is the underlying connection, Server the serving loop; both
	// are nil when the service is driven without one.
	Conn   io.ReadWriteCloser
	Server *Server

	service     *Service
	writer      *protocol.FrameWriter
	done        bool
	writeFailed bool
}

// Reply sends an intermediate reply with continues set. It is only
// valid when the request carried the more flag. Replies of oneway
// calls are discarded.
func (c *Call) Reply(parameters map[string]interface{}) error {
	if c.done {
		return errCallClosed
	}
	if !c.More {
		return errReplyWithoutMore
	}
	return c.sendReply(parameters, true)
}

// CloseWithReply sends the final reply of the call. No replies may
// follow.
func (c *Call) CloseWithReply(parameters map[string]interface{}) error {
	if c.done {
		return errCallClosed
	}
	c.done = true
	return c.sendReply(parameters, false)
}

func (c *Call) sendReply(parameters map[string]interface{}, continues bool) (err error) {
	if c.Oneway {
		return
	}
	filtered, err := c.Interface.FilterParams("server.reply", c.Method.Out, parameters)
	if err != nil {
		return
	}
	out, ok := filtered.(map[string]interface{})
	if !ok {
		out = map[string]interface{}{}
	}
	err = c.writer.WriteFrame(&protocol.ServiceReply{Parameters: out, Continues: continues})
	if err != nil {
		c.writeFailed = true
	}
	return
}

// Handle processes one request frame and writes any replies to w. The
// returned error, if any, is fatal for the connection; dispatch
// failures that the protocol can express are written as error frames
// instead, and unexpected handler failures are logged and reported as
// InternalError with the connection kept open.
func (s *Service) Handle(request []byte, w *protocol.FrameWriter, srv *Server, conn io.ReadWriteCloser) (err error) {
	var message protocol.ServiceCall
	if err = json.Unmarshal(request, &message); err != nil {
		return
	}

	call := &Call{
		More:    message.More,
		Oneway:  message.Oneway,
		Upgrade: message.Upgrade,
		Raw:     request,
		Message: &message,
		Conn:    conn,
		Server:  srv,
		service: s,
		writer:  w,
	}

	dispatchErr := s.dispatch(call, &message)

	if dispatchErr == nil {
		if !call.done && !call.Oneway {
			// a handler that returns without replying still owes the
			// client a terminal frame
			call.CloseWithReply(nil)
		}
		if call.writeFailed {
			return ErrDisconnected
		}
		return nil
	}

	if call.writeFailed || dispatchErr == ErrDisconnected {
		return ErrDisconnected
	}

	if serviceErr, ok := dispatchErr.(*protocol.ServiceError); ok {
		call.done = true
		if werr := w.WriteFrame(serviceErr.Reply()); werr != nil {
			return ErrDisconnected
		}
		return nil
	}

	s.log.Error("unexpected error in", message.Method, "call:", dispatchErr)
	call.done = true
	if werr := w.WriteFrame(protocol.InternalServiceError().Reply()); werr != nil {
		return ErrDisconnected
	}
	return nil
}

func (s *Service) dispatch(call *Call, message *protocol.ServiceCall) error {
	interfaceName, methodName := message.SplitMethod()
	if interfaceName == "" || methodName == "" {
		return protocol.InterfaceNotFoundError(interfaceName)
	}

	iface, ok := s.interfaces[interfaceName]
	if !ok {
		return protocol.InterfaceNotFoundError(interfaceName)
	}
	method, err := iface.GetMethod(methodName)
	if err != nil {
		return err
	}

	parameters := message.Parameters
	if parameters == nil {
		parameters = map[string]interface{}{}
	}
	for name := range parameters {
		if _, declared := method.In.FieldType(name); !declared {
			return protocol.InvalidParameterError(name)
		}
	}

	withAbsent := make(map[string]interface{}, len(method.In.Fields))
	for name, value := range parameters {
		withAbsent[name] = value
	}
	for _, field := range method.In.Fields {
		if _, present := withAbsent[field.Name]; !present {
			withAbsent[field.Name] = idl.Absent
		}
	}

	filtered, err := iface.FilterParams("server.call", method.In, withAbsent)
	if err != nil {
		return err
	}
	in, _ := filtered.(map[string]interface{})

	fn, ok := s.methods[interfaceName][methodName]
	if !ok || fn == nil {
		return protocol.MethodNotImplementedError(methodName)
	}

	call.Interface = iface
	call.Method = method
	call.In = in
	return fn(call)
}
