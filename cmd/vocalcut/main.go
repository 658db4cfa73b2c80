package main

import "github.com/forPelevin/vocalcut/internal/cli"

func main() {
	cli.Main()
}
