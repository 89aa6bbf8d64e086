package main

import "github.com/notargets/picverify/cmd"

func main() {
	cmd.Execute()
}
