package main

import "github.com/notargets/insfv/cmd"

func main() {
	cmd.Execute()
}
