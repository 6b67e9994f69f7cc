package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestControlListPreservesInsertionOrderAndRejectsDuplicates(t *testing.T) {
	l := NewControlList()
	assert.True(t, l.Add(Control{OID: "1.2.3"}))
	assert.True(t, l.Add(Control{OID: "1.2.4"}))
	assert.False(t, l.Add(Control{OID: "1.2.3"}), "duplicate OID must be rejected")

	all := l.All()
	assert.Equal(t, []string{"1.2.3", "1.2.4"}, []string{all[0].OID, all[1].OID})
	assert.Equal(t, 2, l.Len())
}

func TestMessageOperationTypeAndIsResponse(t *testing.T) {
	req := &Message{MessageID: 1, Op: &BindRequest{Version: 3}}
	assert.Equal(t, TagBindRequest, req.OperationType())
	assert.False(t, req.IsResponse())

	resp := &Message{MessageID: 1, Op: &BindResponse{}}
	assert.Equal(t, TagBindResponse, resp.OperationType())
	assert.True(t, resp.IsResponse())

	var empty Message
	assert.Equal(t, -1, empty.OperationType())
}

func TestDNTrimLeadingSpace(t *testing.T) {
	assert.Equal(t, DN("dc=example,dc=com"), DN("  dc=example,dc=com").TrimLeadingSpace())
	assert.Equal(t, DN(""), DN("").TrimLeadingSpace())
}

func TestResultCodeString(t *testing.T) {
	assert.Equal(t, "success", ResultSuccess.String())
	assert.Equal(t, "authorizationDenied", ResultAuthorizationDenied.String())
	assert.Contains(t, ResultCode(999).String(), "unknown")
}
