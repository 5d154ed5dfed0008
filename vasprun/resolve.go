package vasprun

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/mseaton/vaspio/incar"
)

var log = commonlog.GetLogger("vaspio.vasprun")

// sidecarResolver recovers parameter values the producer mangled in the
// output stream by reading them back from the input file that sits next to
// the stream's source. Absence of a sidecar or of the key is signaled, not
// raised; the decoder decides whether that is fatal.
type sidecarResolver struct {
	dir string
}

// resolve returns the sidecar's value for the named parameter and whether
// one was found. The sidecar is the first directory entry whose name
// contains "INCAR".
func (r *sidecarResolver) resolve(name string) (any, bool) {
	if r == nil || r.dir == "" {
		return nil, false
	}
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, false
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), "INCAR") {
			continue
		}
		file, err := incar.ParseFile(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			return nil, false
		}
		val, ok := file.Get(name)
		if ok {
			log.Noticef("recovered %s from sidecar %s", name, entry.Name())
		}
		return val, ok
	}
	return nil, false
}
