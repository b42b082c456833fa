package main

import "fixture-builder/cmd"

func main() {
	cmd.Execute()
}
