package main

import "nathanbeddoewebdev/dockctl/cmd"

func main() {
	cmd.Execute()
}
