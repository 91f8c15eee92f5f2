package main

import "github.com/chrisdamba/cotraffic/cmd"

func main() {
	cmd.Execute()
}
