package main

import "linecheck/internal/cli"

func main() {
	cli.Execute()
}
