package badger

import (
	"fmt"

	"github.com/rishtahq/rishta/core"
)

// Key prefixes for different data types
const (
	profileRecordPrefix = "prorec"
	profileIDSeq        = "prorecseq"
)

// makeProfileKey generates a key for a profile by ID.
func makeProfileKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", profileRecordPrefix, id))
}
