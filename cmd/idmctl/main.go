package main

import "github.com/pilab-dev/identity-store/cmd/idmctl/cmd"

func main() {
	cmd.Execute()
}
