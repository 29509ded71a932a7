package main

import "github.com/notargets/fegraphics/cmd"

func main() {
	cmd.Execute()
}
