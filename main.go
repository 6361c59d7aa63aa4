package main

import "github.com/Tiliavir/maintenance-notebook/cmd"

func main() {
	cmd.Execute()
}
