package main

import "github.com/naka-gawa/repo-vet/cmd"

func main() {
	cmd.Execute()
}
