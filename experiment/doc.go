// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package experiment implements the participant progression state machine.

# Flow

	svc := experiment.NewService(ro, rw, experiment.PolicyUniform)

	p, err := svc.Verify(ctx, code)            // step zero, recorded once
	st, err := svc.State(ctx, code)            // builds the playlist on first call
	next, err := svc.Advance(ctx, code, &seen) // +1 per confirmed video
	err = svc.SubmitRankings(ctx, code, ids)   // stores ranks, consumes the code

# Progress Counter

Verification sets the counter to 1. While watching a playlist of n videos the
counter points one past the index of the current video. Confirming the last
video moves it to n+1, which is terminal. Reads clamp the counter into [0, n];
see ResolveProgress.

Advance is conditional on the value the client last saw. A request carrying a
stale value fails with ErrStaleProgress instead of counting twice.

# Playlist Policies

PolicyUniform permutes every active video of the participant's group.
PolicyStratified draws two videos from each (nar_level, sex) stratum and
permutes the eight. Either way the result is persisted once and never
rebuilt.

# Errors

Callers map the sentinel errors with errors.Is. Storage failures wrap
ErrPersistence and are logged here with the participant id and operation.
*/
package experiment
