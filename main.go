package main

import "github.com/kitchenwise/recipechat/cmd"

func main() {
	cmd.Execute()
}
