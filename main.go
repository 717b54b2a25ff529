/*
Copyright 2023 Markus Papenbrock
*/
package main

import "github.com/mpapenbr/racepredict/cmd"

func main() {
	cmd.Execute()
}
