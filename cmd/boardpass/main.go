package main

import "github.com/MeKo-Tech/boardpass/cmd/boardpass/cmd"

func main() {
	cmd.Execute()
}
