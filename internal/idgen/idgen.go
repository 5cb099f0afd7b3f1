// Package idgen produces bin identifiers: a short readable prefix followed by
// an xid suffix ("bin-cv37rs3pp9olc6atsptg"). xids are unique within a
// process; collisions across devices are not coordinated.
package idgen

import "github.com/rs/xid"

const DefaultPrefix = "bin"

// Generator returns a fresh identifier on every call.
type Generator func() string

// New returns a Generator for the given prefix.
func New(prefix string) Generator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return func() string {
		return prefix + "-" + xid.New().String()
	}
}

// NewBinID is the default Generator.
var NewBinID = New(DefaultPrefix)
