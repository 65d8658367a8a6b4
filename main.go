package main

import "github.com/fakeyudi/paws/cmd"

func main() {
	cmd.Execute()
}
