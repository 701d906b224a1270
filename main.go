package main

import "temposquare/cmd"

func main() {
	cmd.Execute()
}
