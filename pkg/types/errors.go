package types

import "fmt"

// SupportedCounties lists the counties the adapter layer knows how to query.
var SupportedCounties = []County{CountyMiamiDade, CountyBroward, CountyPalmBeach}

// UnsupportedCountyError is returned when a caller names a county outside the
// supported set. It is a configuration error, never swallowed.
type UnsupportedCountyError struct {
	County string
}

func (e *UnsupportedCountyError) Error() string {
	return fmt.Sprintf("unsupported county %q (supported: Miami-Dade, Broward, Palm Beach)", e.County)
}
