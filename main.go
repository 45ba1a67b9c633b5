package main

import "github.com/mockllm/kvrouter/cmd"

func main() {
	cmd.Execute()
}
