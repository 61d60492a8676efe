package main

import "github.com/ardanlabs/doublespend/app/tooling/attack/cmd"

func main() {
	cmd.Execute()
}
