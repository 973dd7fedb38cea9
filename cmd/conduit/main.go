package main

import "github.com/eleven-am/conduit/cmd"

func main() {
	cmd.Execute()
}
