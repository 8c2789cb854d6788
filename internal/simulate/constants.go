package simulate

import "time"

// Score generation constants.
const (
	scoreStep          = 0.5
	idPrefixLength     = 8
	progressInterval   = time.Second
	submitBurst        = 1
	percentMultiplier  = 100
	outputPermission   = 0600
	directoryPerm      = 0750
	defaultCompetition = "sim"
)
