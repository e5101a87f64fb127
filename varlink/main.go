package main

/*
* CLI to talk to varlink services
 */

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli"

	"varlink.org/varlink/client"
	"varlink.org/varlink/common/protocol"
	"varlink.org/varlink/common/version"

	. "varlink.org/varlink/common/util"
)

func PrintErr(stderr io.Writer, msg string, args ...interface{}) {
	if len(args) == 0 {
		stderr.Write([]byte(msg + "\n"))
	} else {
		stderr.Write([]byte(fmt.Sprintf(msg, args...) + "\n"))
	}
}

func PrintFatal(stderr io.Writer, msg string, args ...interface{}) {
	PrintErr(stderr, msg, args...)
	os.Exit(1)
}

func fatal(err error) {
	if serviceErr, ok := err.(*protocol.ServiceError); ok {
		encoded, jsonErr := json.MarshalIndent(serviceErr, "", "  ")
		if jsonErr == nil {
			PrintFatal(os.Stderr, Red(string(encoded)))
		}
	}
	PrintFatal(os.Stderr, Red(err.Error()))
}

func printJSON(value interface{}) {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fatal(err)
	}
	os.Stdout.Write(encoded)
	os.Stdout.Write([]byte("\n"))
}

// splitTarget splits "ADDRESS/INTERFACE" into its parts; the address
// is empty when only an interface name was given.
func splitTarget(target string) (addressPart string, interfaceName string) {
	if slash := strings.LastIndex(target, "/"); slash != -1 {
		return target[:slash], target[slash+1:]
	}
	return "", target
}

func openClient(c *cli.Context, addressPart, interfaceName string) (cl *client.Client, err error) {
	if addressPart != "" {
		return client.NewClient(addressPart)
	}
	return client.NewResolvedClient(interfaceName, c.GlobalString("resolver"))
}

func infoCommand(c *cli.Context) (err error) {
	if c.NArg() < 1 {
		PrintFatal(os.Stderr, "missing ADDRESS")
	}
	cl, err := client.NewClient(c.Args().Get(0))
	if err != nil {
		fatal(err)
	}
	defer cl.Close()

	info, err := cl.GetInfo()
	if err != nil {
		fatal(err)
	}
	fmt.Println("Vendor:", info["vendor"])
	fmt.Println("Product:", info["product"])
	fmt.Println("Version:", info["version"])
	fmt.Println("URL:", info["url"])
	fmt.Println("Interfaces:")
	if interfaces, ok := info["interfaces"].([]interface{}); ok {
		for _, name := range interfaces {
			fmt.Println("  ", name)
		}
	}
	return
}

func helpCommand(c *cli.Context) (err error) {
	if c.NArg() < 1 {
		PrintFatal(os.Stderr, "missing INTERFACE")
	}
	addressPart, interfaceName := splitTarget(c.Args().Get(0))
	cl, err := openClient(c, addressPart, interfaceName)
	if err != nil {
		fatal(err)
	}
	defer cl.Close()

	description, err := cl.GetInterfaceDescription(interfaceName)
	if err != nil {
		fatal(err)
	}
	fmt.Print(description)
	return
}

func callCommand(c *cli.Context) (err error) {
	if c.NArg() < 1 {
		PrintFatal(os.Stderr, "missing METHOD")
	}
	methodArg := c.Args().Get(0)
	dot := strings.LastIndex(methodArg, ".")
	if dot == -1 {
		PrintFatal(os.Stderr, "No method found")
	}
	method := methodArg[dot+1:]
	addressPart, interfaceName := splitTarget(methodArg[:dot])

	arguments := c.Args().Get(1)
	if arguments == "" {
		arguments = "{}"
	}
	var parameters map[string]interface{}
	if err = json.Unmarshal([]byte(arguments), &parameters); err != nil {
		PrintFatal(os.Stderr, Red("Invalid JSON arguments: "+err.Error()))
	}

	cl, err := openClient(c, addressPart, interfaceName)
	if err != nil {
		fatal(err)
	}
	defer cl.Close()

	conn, err := cl.Open(interfaceName)
	if err != nil {
		fatal(err)
	}
	defer conn.Close()

	if c.Bool("more") {
		stream, callErr := conn.CallMore(method, parameters)
		if callErr != nil {
			fatal(callErr)
		}
		for {
			reply, nextErr := stream.Next()
			if nextErr == io.EOF {
				break
			}
			if nextErr != nil {
				fatal(nextErr)
			}
			printJSON(reply)
		}
		return
	}

	reply, err := conn.Call(method, parameters)
	if err != nil {
		fatal(err)
	}
	printJSON(reply)
	return
}

func main() {
	app := cli.NewApp()
	app.Name = "varlink"
	app.Usage = "call methods of varlink services and inspect their interfaces"
	app.Version = version.CURRENT_VERSION.String()
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "resolver, r",
			Usage: "address of the resolver",
		},
	}
	app.Commands = []cli.Command{
		cli.Command{
			Name:   "info",
			Usage:  "Print information about a service",
			Action: infoCommand,
		},
		cli.Command{
			Name:   "help",
			Usage:  "Print the description of an interface",
			Action: helpCommand,
		},
		cli.Command{
			Name:  "call",
			Usage: "Call a method with JSON arguments",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "more, m",
					Usage: "wait for multiple method returns if supported",
				},
			},
			Action: callCommand,
		},
	}
	err := app.Run(os.Args)
	if err != nil {
		PrintFatal(os.Stderr, Red(err.Error()))
	}
}
