package main

import "dyebot/cmd"

func main() {
	cmd.Execute()
}
