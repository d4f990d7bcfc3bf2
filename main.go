package main

import "github.com/cansudoganay/shellgibi-shell/cmd"

func main() {
	cmd.Execute()
}
