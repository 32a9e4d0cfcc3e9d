package main

import "github.com/engineerpawangupta/crowsale/cmd"

func main() {
	cmd.Execute()
}
