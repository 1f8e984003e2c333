package main

import "github.com/RyanBlaney/featmerge/cmd"

func main() {
	cmd.Execute()
}
