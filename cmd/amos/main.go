// Copyright © 2018 One Concern

package main

import (
	"github.com/oneconcern/amos/cmd/amos/cmd"
)

func main() {
	cmd.Execute()
}
