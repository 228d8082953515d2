package main

import "github.com/pixstore/pixstore/cmd"

func main() {
	cmd.Execute()
}
