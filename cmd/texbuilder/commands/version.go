package commands

import (
	"fmt"

	"git.home.luguber.info/inful/texbuilder/internal/version"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (VersionCmd) Run() error {
	_, err := fmt.Fprintln(stdout, version.String())
	return err
}
