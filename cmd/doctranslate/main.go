package main

import "doc-bridge/internal/cli"

func main() {
	cli.Execute()
}
