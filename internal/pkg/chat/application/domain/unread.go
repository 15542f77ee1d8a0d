package chat

// UnreadMessages projects the subset of messages that count as unread for
// userID, preserving order. This recompute-from-scratch projection is the
// correctness baseline the aggregator relies on.
func UnreadMessages(messages []Message, userID string) []Message {
	var unread []Message
	for _, m := range messages {
		if m.UnreadFor(userID) {
			unread = append(unread, m)
		}
	}
	return unread
}

// CountUnread is the per-conversation unread count for userID.
func CountUnread(messages []Message, userID string) int {
	n := 0
	for _, m := range messages {
		if m.UnreadFor(userID) {
			n++
		}
	}
	return n
}
