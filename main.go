package main

import "github.com/agrisense/advisor/cmd"

func main() {
	cmd.Execute()
}
