// ebicsctl is a command line client for EBICS H004 bank servers
package main

import "github.com/sirosfoundation/go-ebics/internal/cli"

func main() {
	cli.Execute()
}
