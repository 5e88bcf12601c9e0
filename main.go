package main

import "github.com/lumais/antpair/cmd"

func main() {
	cmd.Execute()
}
