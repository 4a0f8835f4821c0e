package audio

import "fmt"

type fileOperation int

const (
	// File did not exist before.
	created fileOperation = iota

	// File existed and was overwritten.
	replaced
)

func (op fileOperation) String() string {
	switch op {
	case created:
		return "created"
	case replaced:
		return "replaced"
	default:
		return fmt.Sprintf("fileOperation(%d)", int(op))
	}
}
