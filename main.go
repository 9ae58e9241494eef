package main

import "github.com/KaramelBytes/samplescope-cli/cmd"

func main() {
	cmd.Execute()
}
