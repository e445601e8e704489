package main

import "github.com/iksnae/ga4-analyst/cmd"

func main() {
	cmd.Execute()
}
