package main

import "github.com/pfrederiksen/census-dict/internal/cli"

func main() {
	cli.Execute()
}
