package p2p

import (
	"fmt"

	"github.com/Klingon-tech/feetoken/pkg/types"
)

// MaxEventMessageSize bounds a single gossiped event.
const MaxEventMessageSize = 16 * 1024

// EventsTopic returns the GossipSub topic carrying a token's events.
func EventsTopic(contract types.Address) string {
	return fmt.Sprintf("feetoken/%s/events", contract)
}
