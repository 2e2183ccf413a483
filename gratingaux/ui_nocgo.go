//go:build tinygo || !cgo

package gratingaux

import (
	"errors"

	"github.com/lightest/grating"
)

func ui(def grating.PatternDefinition, cfg UIConfig) error {
	return errors.New("require cgo for UI rendering")
}
