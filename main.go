package main

import "github.com/Shootle/txtcoin/cmd"

func main() {
	cmd.Execute()
}
