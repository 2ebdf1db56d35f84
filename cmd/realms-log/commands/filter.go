package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/log"
)

// RunFilter copies the selected events of the capture at path into a new
// capture at output and returns how many were copied. An existing output
// file is never appended to.
func RunFilter(path string, sel Selection, output string) (int, error) {
	f, err := sel.Filter()
	if err != nil {
		return 0, err
	}
	if _, err := os.Stat(output); err == nil {
		return 0, fmt.Errorf("%s already exists", output)
	} else if !errors.Is(err, os.ErrNotExist) {
		return 0, err
	}

	out, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	if err := log.Scan(path, f, func(ev log.Event) error {
		out.Log(ev)
		return nil
	}); err != nil {
		return 0, err
	}

	written, dropped := out.Counts()
	if dropped > 0 {
		return written, fmt.Errorf("%d events could not be written", dropped)
	}
	return written, nil
}
