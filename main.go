package main

import "github.com/siphondl/siphon/cmd"

func main() {
	cmd.Execute()
}
