package main

import "github.com/mj1618/uipilot/cmd"

func main() {
	cmd.Execute()
}
