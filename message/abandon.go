package message

// AbandonRequest asks the receiver to stop processing an earlier
// request. Per invariant I6, an AbandonRequest naming an unknown or
// already-completed message id must be silently ignored by whoever
// applies it — that policy belongs to the application layer, not this
// codec, which only carries the id.
//
// AbandonRequest ::= [APPLICATION 16] MessageID
type AbandonRequest struct {
	bodyLength
	MessageID int32
}

func (*AbandonRequest) Tag() int { return TagAbandonRequest }
