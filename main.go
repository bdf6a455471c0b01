package main

import "github.com/fakeyudi/snaptrace/cmd"

func main() {
	cmd.Execute()
}
