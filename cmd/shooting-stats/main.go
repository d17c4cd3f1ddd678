package main

import "shooting_stats/cmd"

func main() {
	cmd.Execute()
}
