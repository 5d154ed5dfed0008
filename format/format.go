package format

import (
	"encoding"

	"github.com/mseaton/vaspio/vasprun"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(result *vasprun.Result) error
}
