package main

import (
	"github.com/JackyZzZz/Jacky-PeterPortal/cmd"
)

func main() {
	cmd.Execute()
}
