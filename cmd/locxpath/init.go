package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fwojciec/locxpath"
)

// Run executes the init-config command.
func (c *InitConfigCmd) Run(deps *Dependencies) error {
	if !c.Force {
		if _, err := os.Stat(c.Path); err == nil {
			err := locxpath.Errorf(locxpath.EINVALID, "%s already exists (use --force to overwrite)", c.Path)
			fmt.Fprintf(deps.Stderr, "error: %s\n", locxpath.ErrorMessage(err))
			return err
		} else if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return err
		}
	}

	if err := WriteTemplate(c.Path, TemplateConfig()); err != nil {
		fmt.Fprintf(deps.Stderr, "error: failed to write template: %v\n", err)
		return err
	}
	fmt.Fprintf(deps.Stdout, "Config template written to %s\n", c.Path)
	return nil
}
