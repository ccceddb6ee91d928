package main

import "github.com/Knowrithm/knowrithm-cli/cmd"

func main() {
	cmd.Execute()
}
