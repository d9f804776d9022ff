package main

import "github.com/aweris/vstore/cmd/vstore/cmd"

func main() {
	cmd.Execute()
}
