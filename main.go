package main

import "linefix/cmd"

func main() {
	cmd.Execute()
}
