package main

import (
	"github.com/thirdweb-dev/substrate-sink/cmd"
)

func main() {
	cmd.Execute()
}
