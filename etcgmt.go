// SPDX-License-Identifier: MIT

package tzfinder

import (
	"fmt"
	"math"
)

// EtcGMT returns the synthetic IANA identifier for a longitude without
// dataset coverage, such as open ocean. Following the Etc/GMT convention
// the sign is inverted: zones east of Greenwich get "Etc/GMT-k".
func EtcGMT(lng float32) (string, error) {
	if math.IsNaN(float64(lng)) || lng < -180 || lng > 180 {
		return "", fmt.Errorf("%w: longitude %v", ErrOutOfRange, lng)
	}
	k := int(math.Round(float64(-lng) / 15))
	switch {
	case k == 0:
		return "Etc/GMT", nil
	case k > 0:
		return fmt.Sprintf("Etc/GMT+%d", k), nil
	default:
		return fmt.Sprintf("Etc/GMT%d", k), nil
	}
}
