package internal

import "fmt"

var (
	Version string
	Commit  string
)

func PrintableVersion() string {
	return fmt.Sprintf("ominix-hub %s (%s)", Version, Commit)
}
