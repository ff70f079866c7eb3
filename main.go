package main

import (
	"unifm/cmd"
)

func main() {
	cmd.Execute()
}
