package structured

import (
	"fmt"
	"sync"
)

var (
	ctxMu   sync.RWMutex
	ctxVars = map[string]any{}
)

// BindContextVars binds key/value pairs process-wide. The merge_context_vars
// step folds them into every subsequent event until they are unbound. An odd
// trailing key binds against a nil value.
func BindContextVars(args ...any) {
	ctxMu.Lock()
	defer ctxMu.Unlock()
	for i := 0; i < len(args); i += 2 {
		key := fmt.Sprint(args[i])
		if i+1 < len(args) {
			ctxVars[key] = args[i+1]
		} else {
			ctxVars[key] = nil
		}
	}
}

// UnbindContextVars removes previously bound keys. Unknown keys are ignored.
func UnbindContextVars(keys ...string) {
	ctxMu.Lock()
	defer ctxMu.Unlock()
	for _, key := range keys {
		delete(ctxVars, key)
	}
}

// ResetContextVars drops every bound variable.
func ResetContextVars() {
	ctxMu.Lock()
	defer ctxMu.Unlock()
	ctxVars = map[string]any{}
}

func contextVarsSnapshot() map[string]any {
	ctxMu.RLock()
	defer ctxMu.RUnlock()
	if len(ctxVars) == 0 {
		return nil
	}
	snapshot := make(map[string]any, len(ctxVars))
	for k, v := range ctxVars {
		snapshot[k] = v
	}
	return snapshot
}
