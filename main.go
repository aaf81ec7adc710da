package main

import "facefortune/cmd"

func main() {
	cmd.Execute()
}
