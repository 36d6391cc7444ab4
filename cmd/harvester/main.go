package main

import (
	"context"

	"agencyharvest/cmd/harvester/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
