package main

import "github.com/curaious/timesheet/cmd"

func main() {
	cmd.Execute()
}
