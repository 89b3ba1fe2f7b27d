package huya

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lk2023060901/live-garden-go/internal/json"
	"github.com/lk2023060901/live-garden-go/internal/live"
)

func testRoom() *profileRoom {
	room := &profileRoom{LiveStatus: "ON"}
	room.Profile.Nick = "主播"
	room.LiveData.BitRateInfo = `[{"sDisplayName":"原画","iBitRate":0},{"sDisplayName":"蓝光4M","iBitRate":4000},{"sDisplayName":"超清","iBitRate":2000}]`
	room.Stream = json.RawMessage(`{"baseSteamInfoList":[
		{"sCdnType":"AL","sStreamName":"stream-a","sFlvUrl":"https://al.flv.huya.com/src","sFlvUrlSuffix":"flv","sFlvAntiCode":"wsTime=66366ff9&fm=dGVzdHByZWZpeF8kMF8kMV8kMl8kMw==&ctype=huya_live&t=100&fs=bgct","lPresenterUid":1234},
		{"sCdnType":"TX","sStreamName":"stream-a","sFlvUrl":"https://tx.flv.huya.com/src","sFlvUrlSuffix":"flv","sFlvAntiCode":"wsTime=66366ff9&fm=dGVzdHByZWZpeF8kMF8kMV8kMl8kMw==&ctype=huya_live&t=100&fs=bgct","lPresenterUid":1234}
	]}`)
	return room
}

func TestBuildVariantsSentinelFirst(t *testing.T) {
	variants, err := buildVariants(testRoom(), 1717000000000)
	assert.NoError(t, err)
	assert.Len(t, variants, 3)

	// 原画档使用哨兵清晰度，最终排序后恒定在首位。
	byID := make(map[string]live.StreamVariant)
	for _, v := range variants {
		byID[v.ID] = v
	}
	assert.Equal(t, live.QualityBest, byID["br0"].Quality)
	assert.Equal(t, 4000, byID["br4000"].Quality)
}

func TestBuildVariantsSourceOrdering(t *testing.T) {
	variants, err := buildVariants(testRoom(), 1717000000000)
	assert.NoError(t, err)

	// TX 源优先作为主地址，AL 源进入备用列表。
	for _, v := range variants {
		assert.Contains(t, v.URL, "tx.flv.huya.com")
		assert.Len(t, v.BackupURLs, 1)
		assert.Contains(t, v.BackupURLs[0], "al.flv.huya.com")
	}
}

func TestBuildVariantsRatioOnlyForPositiveBitrate(t *testing.T) {
	variants, _ := buildVariants(testRoom(), 1717000000000)
	byID := make(map[string]live.StreamVariant)
	for _, v := range variants {
		byID[v.ID] = v
	}
	assert.NotContains(t, byID["br0"].URL, "ratio=")
	assert.Contains(t, byID["br2000"].URL, "ratio=2000")
}

func TestBuildVariantsNoSources(t *testing.T) {
	room := &profileRoom{LiveStatus: "ON"}
	_, err := buildVariants(room, 1717000000000)
	assert.Error(t, err)
}

func TestHandleMessageNotice(t *testing.T) {
	session, _ := live.NewSession(context.Background(), live.Huya, "kaerlol")
	defer session.Stop()

	var notice tarsWriter
	notice.writeHead(0, tarsStructBegin)
	notice.WriteInt(0, 111)
	notice.WriteString(2, "tester")
	notice.writeHead(0, tarsStructEnd)
	notice.WriteString(3, "hello  huya")

	var push tarsWriter
	push.WriteInt(0, 3)
	push.WriteInt(1, uriMessageNotice)
	push.WriteBytes(2, notice.Bytes())

	var cmd tarsWriter
	cmd.WriteInt(0, cmdPushMessage)
	cmd.WriteBytes(1, push.Bytes())

	handleFrame(session, cmd.Bytes(), live.ConnectOptions{})

	select {
	case ev := <-session.Events():
		assert.Equal(t, live.MethodChatMessage, ev.Method)
		assert.Equal(t, "tester", ev.User)
		assert.Equal(t, "hello huya", ev.Text)
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
}

func TestHandleFrameIgnoresOtherCommands(t *testing.T) {
	session, _ := live.NewSession(context.Background(), live.Huya, "kaerlol")

	var cmd tarsWriter
	cmd.WriteInt(0, 99)
	cmd.WriteBytes(1, []byte{0x00})
	handleFrame(session, cmd.Bytes(), live.ConnectOptions{})

	assert.NoError(t, session.Stop())
	_, open := <-session.Events()
	assert.False(t, open)
}

func TestHandleMessageNoticeBlocklist(t *testing.T) {
	session, _ := live.NewSession(context.Background(), live.Huya, "kaerlol")

	var notice tarsWriter
	notice.writeHead(0, tarsStructBegin)
	notice.WriteString(2, "spam")
	notice.writeHead(0, tarsStructEnd)
	notice.WriteString(3, "我分享了直播间快来")

	handleMessageNotice(session, notice.Bytes(), live.ConnectOptions{Blocklist: DefaultBlocklist})

	assert.NoError(t, session.Stop())
	_, open := <-session.Events()
	assert.False(t, open)
}
