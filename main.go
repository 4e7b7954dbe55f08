package main

import "github.com/ValentinKolb/mkv/cmd"

func main() {
	cmd.Execute()
}
