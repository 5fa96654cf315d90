package main

import "github.com/fakeyudi/changerec/cmd"

func main() {
	cmd.Execute()
}
