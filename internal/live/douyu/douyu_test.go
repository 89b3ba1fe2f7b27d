package douyu

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lk2023060901/live-garden-go/internal/live"
	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

func TestBuildVariants(t *testing.T) {
	play := &playData{
		RTMPURL:  "https://hls.douyucdn.cn/live",
		RTMPLive: "9999.flv?token=abc",
		Rate:     2,
		Multirates: []rateInfo{
			{Name: "蓝光", Rate: 0, Bit: 8000},
			{Name: "超清", Rate: 2, Bit: 2000},
			{Name: "高清", Rate: 1, Bit: 900},
		},
	}
	variants := buildVariants(play)
	assert.Len(t, variants, 3)

	byID := make(map[string]live.StreamVariant, len(variants))
	for _, v := range variants {
		byID[v.ID] = v
	}
	// 只有当前生效的 rate 携带 URL。
	assert.Equal(t, "https://hls.douyucdn.cn/live/9999.flv?token=abc", byID["rate2"].URL)
	assert.Empty(t, byID["rate0"].URL)
	assert.Empty(t, byID["rate1"].URL)
	assert.Equal(t, 2, byID["rate2"].Rate)
	assert.Equal(t, 8000, byID["rate0"].Quality)
}

func TestBuildVariantsWithoutMultirates(t *testing.T) {
	play := &playData{RTMPURL: "https://a", RTMPLive: "b.flv", Rate: 0}
	variants := buildVariants(play)
	assert.Len(t, variants, 1)
	assert.Equal(t, live.QualityBest, variants[0].Quality)
	assert.Equal(t, "https://a/b.flv", variants[0].URL)
}

func TestDispatchChatMessage(t *testing.T) {
	session, _ := live.NewSession(context.Background(), live.Douyu, "9999")
	defer session.Stop()

	dispatchMessage(session, "type@=chatmsg/nn@=tester/txt@=hello  world/", live.ConnectOptions{})

	select {
	case ev := <-session.Events():
		assert.Equal(t, live.MethodChatMessage, ev.Method)
		assert.Equal(t, "tester", ev.User)
		assert.Equal(t, "hello world", ev.Text)
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
}

func TestDispatchBlocklist(t *testing.T) {
	session, _ := live.NewSession(context.Background(), live.Douyu, "9999")

	dispatchMessage(session, "type@=chatmsg/nn@=spam/txt@=快来免费抢大奖/",
		live.ConnectOptions{Blocklist: DefaultBlocklist})

	assert.NoError(t, session.Stop())
	_, open := <-session.Events()
	assert.False(t, open)
}

func TestDispatchStatusMessages(t *testing.T) {
	session, _ := live.NewSession(context.Background(), live.Douyu, "9999")
	defer session.Stop()

	dispatchMessage(session, "type@=loginres/userid@=0/", live.ConnectOptions{})
	ev := <-session.Events()
	assert.Equal(t, live.MethodConnectionStatus, ev.Method)
	assert.Equal(t, "joined", ev.Text)

	dispatchMessage(session, "type@=rss/ss@=0/", live.ConnectOptions{})
	ev = <-session.Events()
	assert.Equal(t, "live ended", ev.Text)

	dispatchMessage(session, "type@=error/code@=51/", live.ConnectOptions{})
	ev = <-session.Events()
	assert.Contains(t, ev.Text, "connection error")
}

func TestGetAuthSeedCache(t *testing.T) {
	orig := timeNow
	defer func() { timeNow = orig }()
	now := time.Unix(1717000000, 0)
	timeNow = func() time.Time { return now }

	r := NewResolver()
	r.client = &http.Client{Transport: failingTransport{}}
	seeded := authSeed{Key: "cachedkey", RandStr: "rand", EncTime: 3}
	r.seeds.Put("9999", cachedSeed{seed: seeded, fetchedAt: now}, 1)

	// 命中缓存时不发起请求。
	got, err := r.getAuthSeed(context.Background(), "9999")
	assert.NoError(t, err)
	assert.Equal(t, seeded, got)

	// 过期后触发重新拉取并失败。
	now = now.Add(seedTTL + time.Second)
	_, err = r.getAuthSeed(context.Background(), "9999")
	assert.ErrorIs(t, err, merr.ErrSecretFetch)
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("transport disabled")
}
