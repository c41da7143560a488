package main

import "github.com/xiaot623/legalflow/cmd"

func main() {
	cmd.Execute()
}
