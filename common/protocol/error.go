package protocol

import (
	"fmt"
)

// Names of the standard errors every varlink service may return.
const (
	ServiceInterfaceName = "org.varlink.service"

	ErrorInterfaceNotFound    = "org.varlink.service.InterfaceNotFound"
	ErrorMethodNotFound       = "org.varlink.service.MethodNotFound"
	ErrorMethodNotImplemented = "org.varlink.service.MethodNotImplemented"
	ErrorInvalidParameter     = "org.varlink.service.InvalidParameter"

	// ErrorInternal is emitted for unexpected handler failures. The
	// connection stays usable afterwards.
	ErrorInternal = "InternalError"
)

// ServiceError is a varlink error together with its wire shape. The
// four standard errors and user-declared interface errors share this
// representation and are told apart by Name.
type ServiceError struct {
	Name       string                 `json:"error"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("varlink error '%s'", e.Name)
}

// Reply encodes the error as a terminal reply frame.
func (e *ServiceError) Reply() *ServiceReply {
	parameters := e.Parameters
	if parameters == nil {
		parameters = map[string]interface{}{}
	}
	return &ServiceReply{Error: e.Name, Parameters: parameters}
}

// ErrorFromReply converts a received error reply into a ServiceError.
func ErrorFromReply(reply *ServiceReply) *ServiceError {
	return &ServiceError{Name: reply.Error, Parameters: reply.Parameters}
}

// NewError builds a user-defined error with the given fully qualified
// name and payload.
func NewError(name string, parameters map[string]interface{}) *ServiceError {
	return &ServiceError{Name: name, Parameters: parameters}
}

func InterfaceNotFoundError(interfaceName string) *ServiceError {
	return &ServiceError{
		Name:       ErrorInterfaceNotFound,
		Parameters: map[string]interface{}{"interface": interfaceName},
	}
}

func MethodNotFoundError(method string) *ServiceError {
	return &ServiceError{
		Name:       ErrorMethodNotFound,
		Parameters: map[string]interface{}{"method": method},
	}
}

func MethodNotImplementedError(method string) *ServiceError {
	return &ServiceError{
		Name:       ErrorMethodNotImplemented,
		Parameters: map[string]interface{}{"method": method},
	}
}

func InvalidParameterError(parameter string) *ServiceError {
	return &ServiceError{
		Name:       ErrorInvalidParameter,
		Parameters: map[string]interface{}{"parameter": parameter},
	}
}

func InternalServiceError() *ServiceError {
	return &ServiceError{Name: ErrorInternal}
}
