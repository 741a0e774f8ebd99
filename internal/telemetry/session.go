package telemetry

// IsActive reports whether a shower session is in progress. The id is opaque
// otherwise; zero means no session.
func IsActive(sessionID uint32) bool {
	return sessionID != 0
}
