package identity

import (
	"fmt"
	"math/rand"
)

// Trade-themed name parts for guests who join without a display name.
var nameAdjectives = []string{
	"Swift", "Global", "Premium", "Elite", "Dynamic", "Strategic",
	"Maritime", "Express", "Sterling", "Golden", "Bold", "Savvy",
}

var nameNouns = []string{
	"Trader", "Exporter", "Merchant", "Broker", "Navigator", "Captain",
	"Tycoon", "Magnate", "Voyager", "Pioneer", "Falcon", "Maverick",
}

// GuestName builds a display name like "SwiftTrader42".
func GuestName() string {
	adjective := nameAdjectives[rand.Intn(len(nameAdjectives))]
	noun := nameNouns[rand.Intn(len(nameNouns))]
	return fmt.Sprintf("%s%s%d", adjective, noun, rand.Intn(100))
}
