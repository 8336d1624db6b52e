package main

import (
	"cratesync/cmd"
)

func main() {
	cmd.Execute()
}
