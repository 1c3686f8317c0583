package main

import "github.com/viktsys/nifty50/cmd"

func main() {
	cmd.Execute()
}
