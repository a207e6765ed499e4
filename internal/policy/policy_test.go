package policy

import (
	"testing"
)

func TestCanAccess(t *testing.T) {
	alice := Principal{ID: "alice"}
	admin := Principal{ID: "root", Admin: true}
	pair := []string{"alice", "bob"}

	tests := []struct {
		name      string
		principal Principal
		resource  Resource
		want      bool
	}{
		{"thread participant", alice, Thread{Participants: pair}, true},
		{"thread outsider", Principal{ID: "carol"}, Thread{Participants: pair}, false},
		{"thread admin bypass", admin, Thread{Participants: []string{"bob", "carol"}}, true},
		{"message via thread membership", alice, Message{ThreadParticipants: pair}, true},
		{"message outsider", Principal{ID: "carol"}, Message{ThreadParticipants: pair}, false},
		{"thread create declared participant", alice, ThreadCreate{Participants: pair}, true},
		{"thread create for others", Principal{ID: "carol"}, ThreadCreate{Participants: pair}, false},
		{"thread create admin for others", admin, ThreadCreate{Participants: pair}, true},
		{"message create as declared sender", alice, MessageCreate{SenderID: "alice"}, true},
		{"message create as someone else", alice, MessageCreate{SenderID: "bob"}, false},
		{"message create admin bypass", admin, MessageCreate{SenderID: "bob"}, true},
		{"nil resource denied", alice, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccess(tt.principal, tt.resource); got != tt.want {
				t.Errorf("CanAccess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanMarkRead(t *testing.T) {
	pair := []string{"alice", "bob"}
	fromAlice := ReadReceipt{ThreadParticipants: pair, SenderID: "alice"}

	tests := []struct {
		name      string
		principal Principal
		receipt   ReadReceipt
		want      bool
	}{
		{"receiver may mark", Principal{ID: "bob"}, fromAlice, true},
		{"sender may not mark own message", Principal{ID: "alice"}, fromAlice, false},
		{"outsider may not mark", Principal{ID: "carol"}, fromAlice, false},
		{"admin may mark anything", Principal{ID: "root", Admin: true}, fromAlice, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanMarkRead(tt.principal, tt.receipt); got != tt.want {
				t.Errorf("CanMarkRead() = %v, want %v", got, tt.want)
			}
		})
	}
}
