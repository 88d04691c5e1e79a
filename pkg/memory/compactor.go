package memory

// Retention accounting treats two consecutive messages as one pair. The
// original counselling bot counted only user→assistant adjacencies, which
// lets a non-alternating role sequence grow without bound; counting raw
// length keeps the memory guarantee independent of role discipline.

// pairCount reports the number of retained pairs.
func pairCount(msgs []Message) int {
	return len(msgs) / 2
}

// splitWindow enforces the retention window on a session that must already
// be locked by the caller. When the session holds more than windowPairs
// pairs it truncates the message list to the most recent windowPairs*2
// messages and returns the evicted prefix. The returned slice is a copy, so
// the caller may release the session lock before summarizing it.
func splitWindow(sess *session, windowPairs int) (overflow []Message, compacted bool) {
	if pairCount(sess.messages) <= windowPairs {
		return nil, false
	}

	keep := windowPairs * 2
	cut := len(sess.messages) - keep

	overflow = make([]Message, cut)
	copy(overflow, sess.messages[:cut])

	retained := make([]Message, keep)
	copy(retained, sess.messages[cut:])
	sess.messages = retained

	return overflow, true
}
