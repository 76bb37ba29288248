package main

import "github.com/qobs-build/qgen/cmd"

func main() {
	cmd.Execute()
}
