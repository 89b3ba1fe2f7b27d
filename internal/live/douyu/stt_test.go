package douyu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSTTMarshal(t *testing.T) {
	out := sttMarshal(map[string]string{
		"type":   "loginreq",
		"roomid": "9999",
	})
	assert.Equal(t, "type@=loginreq/roomid@=9999/", out)
}

func TestSTTEscaping(t *testing.T) {
	out := sttMarshal(map[string]string{"txt": "a/b@c"})
	assert.Equal(t, "txt@=a@Sb@Ac/", out)

	fields := sttUnmarshal(out)
	assert.Equal(t, "a/b@c", fields["txt"])
}

func TestSTTUnmarshal(t *testing.T) {
	fields := sttUnmarshal("type@=chatmsg/nn@=tester/txt@=hello world/")
	assert.Equal(t, "chatmsg", fields["type"])
	assert.Equal(t, "tester", fields["nn"])
	assert.Equal(t, "hello world", fields["txt"])
}

func TestSTTUnmarshalGarbage(t *testing.T) {
	fields := sttUnmarshal("///broken/@=novalue/key@=ok/")
	assert.Equal(t, "ok", fields["key"])
	assert.NotContains(t, fields, "broken")
	assert.NotContains(t, fields, "")
}
