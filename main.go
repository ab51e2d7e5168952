package main

import "github.com/tanq16/bingo/cmd"

func main() {
	cmd.Execute()
}
