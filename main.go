package main

import "deepscan/cmd"

func main() {
	cmd.Execute()
}
