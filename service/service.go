package service

import (
	"fmt"

	"github.com/op/go-logging"

	"varlink.org/varlink/common/idl"
	"varlink.org/varlink/common/log"
	"varlink.org/varlink/common/protocol"
)

// MethodFunc implements one varlink method. It receives the call
// context with the filtered input parameters and replies through it.
type MethodFunc func(c *Call) error

// Handler publishes the methods of one interface. The table is read
// once at registration; method resolution afterwards is a map lookup.
type Handler interface {
	VarlinkMethods() map[string]MethodFunc
}

// Service holds the registered interfaces of a varlink service and
// dispatches incoming calls to their handlers. Registration happens at
// startup; the registry is read-only while serving, so connections
// need no locking.
type Service struct {
	vendor  string
	product string
	version string
	url     string

	interfaces map[string]*idl.Interface
	methods    map[string]map[string]MethodFunc
	names      []string
	log        *logging.Logger
}

// New creates a Service carrying the information GetInfo reports. The
// org.varlink.service introspection interface is installed on every
// service.
func New(vendor, product, version, url string) *Service {
	s := &Service{
		vendor:     vendor,
		product:    product,
		version:    version,
		url:        url,
		interfaces: map[string]*idl.Interface{},
		methods:    map[string]map[string]MethodFunc{},
		log:        log.Log,
	}
	if err := s.RegisterInterface(protocol.ServiceDescription, s); err != nil {
		panic(err)
	}
	return s
}

// SetLogger replaces the logger used for dispatch failures.
func (s *Service) SetLogger(logger *logging.Logger) {
	s.log = logger
}

// RegisterInterface parses an interface description and binds it to a
// handler. Registering the same interface twice is an error.
func (s *Service) RegisterInterface(description string, handler Handler) (err error) {
	iface, err := idl.NewInterface(description)
	if err != nil {
		return
	}
	if _, exists := s.interfaces[iface.Name]; exists {
		err = fmt.Errorf("interface '%s' already registered", iface.Name)
		return
	}

	methods := map[string]MethodFunc{}
	for name, fn := range handler.VarlinkMethods() {
		methods[name] = fn
	}

	s.interfaces[iface.Name] = iface
	s.methods[iface.Name] = methods
	s.names = append(s.names, iface.Name)
	return
}

// Interface returns a registered interface definition.
func (s *Service) Interface(name string) (*idl.Interface, bool) {
	iface, ok := s.interfaces[name]
	return iface, ok
}

// InterfaceNames lists the registered interfaces in registration order,
// org.varlink.service first.
func (s *Service) InterfaceNames() []string {
	names := make([]string, len(s.names))
	copy(names, s.names)
	return names
}

// VarlinkMethods makes the service its own handler for
// org.varlink.service.
func (s *Service) VarlinkMethods() map[string]MethodFunc {
	return map[string]MethodFunc{
		"GetInfo":                 s.getInfo,
		"GetInterfaceDescription": s.getInterfaceDescription,
	}
}

func (s *Service) getInfo(c *Call) error {
	return c.CloseWithReply(map[string]interface{}{
		"vendor":     s.vendor,
		"product":    s.product,
		"version":    s.version,
		"url":        s.url,
		"interfaces": s.InterfaceNames(),
	})
}

func (s *Service) getInterfaceDescription(c *Call) error {
	name, _ := c.In["interface"].(string)
	iface, ok := s.interfaces[name]
	if !ok {
		return protocol.InterfaceNotFoundError(name)
	}
	return c.CloseWithReply(map[string]interface{}{
		"description": iface.Description,
	})
}
