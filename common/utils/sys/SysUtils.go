package sys

import (
	"runtime/debug"

	"github.com/petermattis/goid"

	"spinlock/common/logger"
)

func GetGID() uint64 {
	id := goid.Get()
	return uint64(id)
}

// CatchPanic must be deferred directly. It logs the panic value with the
// goroutine id and stack, then lets the goroutine finish normally. A panic
// with the string "exit" is re-raised.
func CatchPanic() {
	if err := recover(); err != nil {
		if msg, ok := err.(string); ok && msg == "exit" {
			panic(msg)
		}
		logger.Error("panic:", GetGID(), err, string(debug.Stack()))
	}
}
