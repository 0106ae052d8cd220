package main

import "github.com/moyu-x/files-filter/cmd"

func main() {
	cmd.Execute()
}
