package main

import "github.com/fsfw-tools/mibgen/internal/cli"

func main() {
	cli.Execute()
}
