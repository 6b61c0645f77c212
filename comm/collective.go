package comm

import "github.com/notargets/meshxfer/xferr"

// Collective runs fn and all-reduces a failure flag across c before
// propagating any error: a fatal condition detected on one rank must not
// simply panic that rank,
// because its peers would then deadlock at the next Barrier waiting for a
// process that has already exited. Every rank in the same Collective call
// returns a non-nil error together, or every rank returns nil together.
//
// A panic raised inside fn (a common idiom for invariant
// violations) is recovered and converted to an error for the purposes of
// the all-reduce, then re-surfaced as a returned error rather than a
// repeated panic, so callers see one consistent failure mode.
func Collective(c Communicator, fn func() error) error {
	var localErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if e, ok := r.(error); ok {
					localErr = e
				} else {
					localErr = xferr.Invariantf("comm: panic in collective stage: %v", r)
				}
			}
		}()
		localErr = fn()
	}()

	failed := c.AllReduceBoolOr(localErr != nil)
	if !failed {
		return nil
	}
	if localErr == nil {
		localErr = xferr.Communicationf("comm: collective stage failed on another rank")
	}
	return localErr
}
