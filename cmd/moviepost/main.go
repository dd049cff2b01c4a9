package main

import "github.com/pfrederiksen/moviepost/internal/cli"

func main() {
	cli.Execute()
}
