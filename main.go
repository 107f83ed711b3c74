/*
	Copyright 2023 Markus Papenbrock
*/

package main

import "github.com/mpapenbr/raceplay/cmd"

func main() {
	cmd.Execute()
}
