package message

// UnbindRequest carries no data; per RFC 4511 §4.3 it is simply
// `[APPLICATION 2] NULL`, a primitive with zero content octets.
type UnbindRequest struct {
	bodyLength
}

func (*UnbindRequest) Tag() int { return TagUnbindRequest }
