package main

import "github.com/hanifmaulana/orgops/cmd"

func main() {
	cmd.Execute()
}
