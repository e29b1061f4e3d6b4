package main

import "github.com/danielkinahan/dualie/cmd"

func main() {
	cmd.Execute()
}
