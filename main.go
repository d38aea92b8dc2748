package main

import "netradar/cmd"

func main() {
	cmd.Execute()
}
