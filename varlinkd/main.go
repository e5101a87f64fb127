package main

/*
* Example varlink daemon serving org.example.more
 */

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/op/go-logging"

	log2 "varlink.org/varlink/common/log"
	"varlink.org/varlink/common/protocol"
	"varlink.org/varlink/common/version"
	"varlink.org/varlink/service"
)

func useSyslog() bool {
	env := os.Getenv("VARLINK_LOG_SYSLOG")
	if env != "" {
		return env == "true"
	}
	return false
}

var log = log2.SetupLogging("varlinkd", logging.INFO, useSyslog())

const moreDescription = `# Example service exercising streaming replies
interface org.example.more

# State of a long-running operation. Only one field is set per update.
type State (
  start: ?bool,
  progress: ?int,
  end: ?bool
)

# Returns the same string
method Ping(ping: string) -> (pong: string)

# Reports progress in n steps; requires the 'more' flag
method TestMore(n: int) -> (state: State)

# Stops the serving daemon
method StopServing() -> ()

# Something failed
error ActionFailed (reason: string)
`

type exampleMore struct {
	stepDelay time.Duration
}

func (h *exampleMore) VarlinkMethods() map[string]service.MethodFunc {
	return map[string]service.MethodFunc{
		"Ping":        h.Ping,
		"TestMore":    h.TestMore,
		"StopServing": h.StopServing,
	}
}

func (h *exampleMore) Ping(c *service.Call) error {
	return c.CloseWithReply(map[string]interface{}{"pong": c.In["ping"]})
}

func (h *exampleMore) TestMore(c *service.Call) (err error) {
	if !c.More {
		return protocol.InvalidParameterError("more")
	}
	n, _ := c.In["n"].(int64)

	err = c.Reply(map[string]interface{}{"state": map[string]interface{}{"start": true}})
	if err != nil {
		return
	}
	for i := int64(0); i < n; i++ {
		err = c.Reply(map[string]interface{}{"state": map[string]interface{}{"progress": i * 100 / n}})
		if err != nil {
			return
		}
		time.Sleep(h.stepDelay)
	}
	err = c.Reply(map[string]interface{}{"state": map[string]interface{}{"progress": 100}})
	if err != nil {
		return
	}
	return c.CloseWithReply(map[string]interface{}{"state": map[string]interface{}{"end": true}})
}

func (h *exampleMore) StopServing(c *service.Call) (err error) {
	err = c.CloseWithReply(nil)
	if err != nil {
		return
	}
	log.Notice("StopServing called, shutting down")
	if c.Server != nil {
		c.Server.Shutdown()
	}
	return
}

func main() {
	defer func() {
		if x := recover(); x != nil {
			log.Error(fmt.Sprintf("run time panic: %v", x))
			log.Error(string(debug.Stack()))
			panic(x)
		}
	}()

	address := os.Getenv("VARLINK_ADDRESS")
	if len(os.Args) > 1 {
		address = os.Args[1]
	}
	if address == "" {
		address = "unix:@org.example.more"
	}

	svc := service.New("Varlink", "Varlink Examples", version.CURRENT_VERSION.String(), "https://varlink.org")
	svc.SetLogger(log)
	err := svc.RegisterInterface(moreDescription, &exampleMore{stepDelay: 100 * time.Millisecond})
	if err != nil {
		log.Fatal(err)
	}

	server := service.NewServer(svc)

	done := make(chan error, 1)
	go func() {
		done <- server.ListenAndServe(address)
	}()

	log.Notice("varlinkd launched and listening on", address)

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, os.Interrupt, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM)
	select {
	case sig, ok := <-stopSignal:
		server.Shutdown()
		if ok {
			log.Notice("stopping with signal", sig)
		}
	case err := <-done:
		if err != nil {
			log.Error("server return:", err)
		}
	}
}
