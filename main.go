package main

import "github.com/klytics/xlkit/cmd"

func main() {
	cmd.Execute()
}
