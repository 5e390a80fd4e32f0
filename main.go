package main

import "github.com/Mohsinsiddi/tokenlaunch/cmd"

func main() {
	cmd.Execute()
}
