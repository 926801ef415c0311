package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsesRemote(t *testing.T) {
	tests := []struct {
		name string
		s    *Session
		want bool
	}{
		{"nil", nil, false},
		{"anonymous", &Session{AgencyID: "clabs"}, false},
		{"shared agency", &Session{UserID: "u1", AgencyID: "clabs"}, true},
		{"isolated agency", &Session{UserID: "u1", AgencyID: "sky", Isolated: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.s.UsesRemote())
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	s := &Session{UserID: "u1", AgencyID: "clabs"}
	ctx := WithSession(context.Background(), s)
	assert.Same(t, s, FromContext(ctx))
}
