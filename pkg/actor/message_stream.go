package actor

import "github.com/nqn/loom/pkg/dataflow"

// AsMessageStream adapts an actor Ref to a dataflow.MessageStream, so an
// operator (pkg/operator, C3) or a dataflow GetValAsync callback can
// deliver results straight into an actor's mailbox, matching spec.md
// §4.1's note that C3 is built from C1 plus C2 and needs actors to sit on
// both sides of the boundary.
func AsMessageStream(target Ref) dataflow.MessageStream {
	return messageStreamRef{target: target}
}

type messageStreamRef struct {
	target Ref
}

func (m messageStreamRef) Send(msg any) {
	_ = m.target.Send(nil, msg)
}
