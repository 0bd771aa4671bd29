package main

import "martianoff/galamatch/cmd/galamatch/commands"

func main() {
	commands.Execute()
}
