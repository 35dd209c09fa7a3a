package main

import "smart-response/cmd"

func main() {
	cmd.Execute()
}
