package main

import "github.com/crowdfund/apiserver/cmd"

func main() {
	cmd.Execute()
}
