package main

import (
	"github.com/maxcodl/WhatSave/cmd"
)

func main() {
	cmd.Execute()
}
