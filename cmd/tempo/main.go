package main

import "github.com/tessro/tempo/internal/cli"

func main() {
	cli.Execute()
}
