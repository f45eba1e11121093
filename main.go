package main

import "github.com/youhavemail/yhm/cmd"

func main() {
	cmd.Execute()
}
