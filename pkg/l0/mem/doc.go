// Package mem brings external SDRAM online and hands it to the heap.
package mem

// Bring-up is a strict one-time sequence run before any task starts:
//
//	ProtectionUnit.ConfigureRegion  -> RegionReady
//	Controller.BringUp(RegionReady) -> Session
//	Verify (optional)
//	Registrar.RegisterSession(Session)
//
// Each stage consumes a value only the previous stage can produce, so the
// order is enforced by construction. Every failure is a *ConfigError and
// is fatal: there is no safe continuation with a misconfigured region or
// controller, so callers halt instead of retrying.
