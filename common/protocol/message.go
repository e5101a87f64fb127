package protocol

import (
	"strings"
)

// ServiceCall is one method call frame. Parameters is omitted on the
// wire when empty.
type ServiceCall struct {
	Method     string                 `json:"method"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	More       bool                   `json:"more,omitempty"`
	Oneway     bool                   `json:"oneway,omitempty"`
	Upgrade    bool                   `json:"upgrade,omitempty"`
}

// SplitMethod splits the fully qualified method name on its last dot
// into interface name and member name. Either part may come back empty
// when the name is malformed.
func (c *ServiceCall) SplitMethod() (interfaceName string, methodName string) {
	dot := strings.LastIndex(c.Method, ".")
	if dot < 0 {
		return "", c.Method
	}
	return c.Method[:dot], c.Method[dot+1:]
}

// ServiceReply is one reply frame. Parameters is always present on the
// wire, even when empty; a set Error field replaces a regular reply.
// Absence of Continues is equivalent to continues: false.
type ServiceReply struct {
	Parameters map[string]interface{} `json:"parameters"`
	Continues  bool                   `json:"continues,omitempty"`
	Error      string                 `json:"error,omitempty"`
}
