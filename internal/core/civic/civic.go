// Package civic holds thin clients for the municipal data services the
// product depends on: the Socrata open-data portal, the geocoder, and the
// direct-mail provider. Every outbound call is funneled through the
// process-wide governor so concurrent handlers cannot hammer a downstream
// endpoint.
package civic

import "time"

func now(clock func() time.Time) time.Time {
	if clock != nil {
		return clock()
	}
	return time.Now().UTC()
}
