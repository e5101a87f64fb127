package util

import (
	"fmt"
)

var ErrDisconnected = fmt.Errorf("Disconnected")
var ErrCallInProgress = fmt.Errorf("Tried to call a varlink method, while other call still in progress")
var ErrContinuesWithoutMore = fmt.Errorf("Server indicated more varlink messages")
var ErrFrameTooLarge = fmt.Errorf("Varlink message exceeds the maximum frame size")
var ErrConnectingToService = fmt.Errorf("Could not connect to the varlink service. Make sure it is running and the address is correct.")
