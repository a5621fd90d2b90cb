package main

import "settlement-engine/cmd"

func main() {
	cmd.Execute()
}
