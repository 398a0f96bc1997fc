// pkg/core/handle.go
package core

import "fmt"

// Handle references a slot in a generation-checked arena. A slot that has been
// released and reused carries a newer generation, so stale handles never resolve.
type Handle struct {
	Index      uint32 `json:"index"`
	Generation uint32 `json:"generation"`
}

// NilHandle is the zero handle. Generations start at 1, so it never resolves.
var NilHandle = Handle{}

// IsNil reports whether h is the zero handle.
func (h Handle) IsNil() bool {
	return h.Generation == 0
}

func (h Handle) String() string {
	if h.IsNil() {
		return "nil"
	}
	return fmt.Sprintf("%d#%d", h.Index, h.Generation)
}
