package main

import "github.com/dockyard-vm/dockyard/cmd/dockyard/cmd"

func main() {
	cmd.Execute()
}
