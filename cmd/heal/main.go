package main

import "github.com/heal-ops/heal/internal/cmd"

func main() {
	cmd.Execute()
}
