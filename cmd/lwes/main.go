/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/lwes/cmd/lwes/cmd"
)

func main() {
	cmd.Execute()
}
