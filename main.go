package main

import "github.com/ntwriter/srscore/cmd"

func main() {
	cmd.Execute()
}
