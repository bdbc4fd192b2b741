package erasure_code

import (
	"sync"
	"time"
)

// settleDelay is how long Build keeps the creation lock after the backend
// returned a new instance. liberasurecode crashed when an instance was used in
// parallel right after creation; the minimum safe value was never measured.
var settleDelay = 10 * time.Millisecond

// creationMu serializes backend instance creation for the whole process. It
// is never torn down.
var creationMu sync.Mutex

func withCreationLock(f func() error) error {
	creationMu.Lock()
	defer creationMu.Unlock()
	return f()
}
