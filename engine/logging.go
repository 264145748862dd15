package engine

import "github.com/tliron/commonlog"

// Scoped loggers, one per subsystem. Verbosity is configured by the
// embedding process (see cmd/mtab); the engine only emits.
var (
	tableLog   = commonlog.GetLogger("mercury.table")
	machineLog = commonlog.GetLogger("mercury.machine")
	mmLog      = commonlog.GetLogger("mercury.mm")
)
