// Released under an MIT license. See LICENSE.

//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package history

import (
	"os"
	"path/filepath"
)

// Path returns where history is kept unless configured otherwise.
func Path() string {
	return filepath.Join(os.Getenv("HOME"), ".cellar_history")
}
