package funnel

import "time"

// VoteScheduler tracks the two wall-clock deadlines that drive a voting
// round: when to open the next vote, and when to close and forward it.
// Both are optional ("unarmed" == nil); nothing fires until armed.
type VoteScheduler struct {
	VoteLength    time.Duration
	VoteTimeout   time.Duration
	TimeoutChange time.Duration

	nextVoteStart *time.Time
	nextVoteSend  *time.Time
}

// NewVoteScheduler builds a scheduler from the funnel's configured
// durations. If startVote is true the first VoteCall is scheduled
// immediately (vote_length from now); otherwise scheduling stays slaved to
// the engine's own StateChange/VoteCall traffic.
func NewVoteScheduler(voteLength, voteTimeout, timeoutChange time.Duration, startVote bool) *VoteScheduler {
	s := &VoteScheduler{
		VoteLength:    voteLength,
		VoteTimeout:   voteTimeout,
		TimeoutChange: timeoutChange,
	}
	if startVote {
		s.armVoteStart(time.Now())
	}
	return s
}

func (s *VoteScheduler) armVoteStart(now time.Time) {
	t := now.Add(s.VoteLength)
	s.nextVoteStart = &t
}

func (s *VoteScheduler) armVoteSend(now time.Time, after time.Duration) {
	t := now.Add(after)
	s.nextVoteSend = &t
}

// NextDeadline returns the nearest armed deadline, and whether one exists.
// The reactor passes this to its select/timer as the next wake-up time.
func (s *VoteScheduler) NextDeadline() (time.Time, bool) {
	switch {
	case s.nextVoteStart != nil && s.nextVoteSend != nil:
		if s.nextVoteStart.Before(*s.nextVoteSend) {
			return *s.nextVoteStart, true
		}
		return *s.nextVoteSend, true
	case s.nextVoteStart != nil:
		return *s.nextVoteStart, true
	case s.nextVoteSend != nil:
		return *s.nextVoteSend, true
	default:
		return time.Time{}, false
	}
}

// VoteStartDue reports whether next_vote_start has elapsed.
func (s *VoteScheduler) VoteStartDue(now time.Time) bool {
	return s.nextVoteStart != nil && !now.Before(*s.nextVoteStart)
}

// VoteSendDue reports whether next_vote_send has elapsed.
func (s *VoteScheduler) VoteSendDue(now time.Time) bool {
	return s.nextVoteSend != nil && !now.Before(*s.nextVoteSend)
}

// FireVoteStart clears next_vote_start and arms next_vote_send for
// vote_timeout from now.
func (s *VoteScheduler) FireVoteStart(now time.Time) {
	s.nextVoteStart = nil
	s.armVoteSend(now, s.VoteTimeout)
}

// FireVoteSend clears next_vote_send.
func (s *VoteScheduler) FireVoteSend() {
	s.nextVoteSend = nil
}

// OnUpstreamVoteCall arms next_vote_send for (timeout - timeout_change) from
// now and returns the adjusted timeout the funnel should rebroadcast to
// clients, giving the funnel a safety margin over what clients see.
func (s *VoteScheduler) OnUpstreamVoteCall(now time.Time, timeoutMS uint32) uint32 {
	adjustedMS := int64(timeoutMS) - s.TimeoutChange.Milliseconds()
	if adjustedMS < 0 {
		adjustedMS = 0
	}
	s.armVoteSend(now, time.Duration(adjustedMS)*time.Millisecond)
	return uint32(adjustedMS)
}

// OnUpstreamStateChange arms next_vote_start for vote_length from now,
// when a fresh state change arrives upstream.
func (s *VoteScheduler) OnUpstreamStateChange(now time.Time) {
	s.armVoteStart(now)
}
