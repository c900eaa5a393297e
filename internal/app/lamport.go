package app

// nextLogicalTS computes the Lamport timestamp for a new request:
// max(client-reported timestamp, highest timestamp ever issued for the
// resource) + 1. Both inputs and the result are scoped to one resource and
// must be computed while holding that resource's row lock, otherwise two
// concurrent requests could be issued colliding timestamps.
func nextLogicalTS(clientTS, lastIssued int64) int64 {
	if clientTS < 0 {
		clientTS = 0
	}
	if clientTS > lastIssued {
		return clientTS + 1
	}
	return lastIssued + 1
}
