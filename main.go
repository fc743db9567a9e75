package main

import "github.com/KaramelBytes/csvsentry/cmd"

func main() {
	cmd.Execute()
}
