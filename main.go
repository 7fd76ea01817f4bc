package main

import "github.com/theirongolddev/envbudget/cmd"

func main() {
	cmd.Execute()
}
