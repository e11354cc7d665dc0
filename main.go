package main

import "github.com/RobertIonutF/rmusico/cmd"

func main() {
	cmd.Execute()
}
