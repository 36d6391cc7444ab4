package commands

import "fmt"

func errInvalidRange(from, to int) error {
	return fmt.Errorf("--from %d must be smaller than --to %d", from, to)
}

func harvestRange(from, to int) string {
	return fmt.Sprintf("[%d, %d)", from, to)
}
