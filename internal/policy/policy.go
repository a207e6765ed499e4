// Package policy decides whether a principal may act on a resource.
//
// All checks are pure functions over immutable value types: the caller
// resolves whatever facts the check needs (thread participants, message
// sender) and passes them in. No I/O happens here.
package policy

// Principal is the authenticated user making the current request.
type Principal struct {
	ID    string
	Admin bool
}

// Resource is the tagged union of things access can be requested for.
type Resource interface {
	isResource()
}

// Thread refers to an existing thread and its participant set.
type Thread struct {
	Participants []string
}

// Message refers to an existing message via its owning thread's participants.
type Message struct {
	ThreadParticipants []string
}

// ThreadCreate is a pending thread-creation payload.
type ThreadCreate struct {
	Participants []string
}

// MessageCreate is a pending message-creation payload.
type MessageCreate struct {
	SenderID string
}

func (Thread) isResource()        {}
func (Message) isResource()       {}
func (ThreadCreate) isResource()  {}
func (MessageCreate) isResource() {}

// CanAccess reports whether the principal may read or write the resource.
// Admins pass every check. Regular users must be a participant of the
// (message's) thread, be among a pending thread's declared participants, or
// be a pending message's declared sender. Unknown resource variants are
// denied.
func CanAccess(p Principal, r Resource) bool {
	if p.Admin {
		return true
	}
	switch res := r.(type) {
	case Thread:
		return contains(res.Participants, p.ID)
	case Message:
		return contains(res.ThreadParticipants, p.ID)
	case ThreadCreate:
		return contains(res.Participants, p.ID)
	case MessageCreate:
		return p.ID == res.SenderID
	}
	return false
}

// ReadReceipt carries the facts needed to authorize marking a message read.
type ReadReceipt struct {
	ThreadParticipants []string
	SenderID           string
}

// CanMarkRead reports whether the principal may mark the message as read.
// Only the receiver may: a participant of the owning thread who is not the
// sender. Admins are exempt.
func CanMarkRead(p Principal, m ReadReceipt) bool {
	if p.Admin {
		return true
	}
	return p.ID != m.SenderID && contains(m.ThreadParticipants, p.ID)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
