package douyu

import (
	"context"
	"net/url"
	"strconv"

	"github.com/lk2023060901/live-garden-go/internal/live"
	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

const (
	roomInfoEndpoint = "https://open.douyucdn.cn/api/RoomApi/room/"
	authSeedEndpoint = "https://www.douyu.com/wgapi/live/websec/getseed"
	playEndpoint     = "https://www.douyu.com/lapi/live/getH5Play/"

	liveReferer = "https://www.douyu.com/"
)

// roomInfo 为开放接口返回的房间信息子集。
type roomInfo struct {
	RoomID     string `json:"room_id"`
	RoomName   string `json:"room_name"`
	OwnerName  string `json:"owner_name"`
	Avatar     string `json:"avatar"`
	RoomThumb  string `json:"room_thumb"`
	RoomStatus string `json:"room_status"`
}

func (info *roomInfo) living() bool {
	return info.RoomStatus == "1"
}

func (r *Resolver) fetchRoomInfo(ctx context.Context, roomID string) (*roomInfo, error) {
	var envelope struct {
		Error int      `json:"error"`
		Data  roomInfo `json:"data"`
	}
	if err := live.FetchJSON(ctx, r.client, roomInfoEndpoint+url.PathEscape(roomID), nil, &envelope); err != nil {
		return nil, err
	}
	if envelope.Error != 0 || envelope.Data.RoomID == "" {
		return nil, merr.WrapErrRoomNotFound(roomID)
	}
	return &envelope.Data, nil
}

// fetchAuthSeed 拉取签名素材。素材按房间派发，缓存见 getAuthSeed。
func (r *Resolver) fetchAuthSeed(ctx context.Context, roomID string) (authSeed, error) {
	query := url.Values{}
	query.Set("rid", roomID)

	var envelope struct {
		Error int      `json:"error"`
		Data  authSeed `json:"data"`
	}
	if err := live.FetchJSON(ctx, r.client, authSeedEndpoint+"?"+query.Encode(), nil, &envelope); err != nil {
		return authSeed{}, merr.WrapErrSecretFetch("auth-seed", err, roomID)
	}
	if envelope.Error != 0 || envelope.Data.Key == "" {
		return authSeed{}, merr.WrapErrSecretFetch("auth-seed",
			merr.WrapErrParse(authSeedEndpoint, "missing key material"), roomID)
	}
	return envelope.Data, nil
}

// rateInfo 为一个码率档的描述。
type rateInfo struct {
	Name string `json:"name"`
	Rate int    `json:"rate"`
	Bit  int    `json:"bit"`
}

// playData 为流地址接口返回的数据子集。
type playData struct {
	RTMPURL    string     `json:"rtmp_url"`
	RTMPLive   string     `json:"rtmp_live"`
	Rate       int        `json:"rate"`
	Multirates []rateInfo `json:"multirates"`
}

func (d *playData) streamURL() string {
	if d.RTMPURL == "" || d.RTMPLive == "" {
		return ""
	}
	return d.RTMPURL + "/" + d.RTMPLive
}

// fetchPlay 以指定码率档请求一次流地址。rate 为 0 表示默认档。
func (r *Resolver) fetchPlay(ctx context.Context, roomID string, rate int) (*playData, error) {
	seed, err := r.getAuthSeed(ctx, roomID)
	if err != nil {
		return nil, err
	}
	now := timeNow().Unix()

	query := url.Values{}
	query.Set("cdn", "")
	query.Set("rate", strconv.Itoa(rate))
	query.Set("ver", "219032101")
	query.Set("tt", strconv.FormatInt(now, 10))
	query.Set("did", r.deviceID)
	query.Set("sign", computeAuth(seed, roomID, now))

	var envelope struct {
		Error int      `json:"error"`
		Msg   string   `json:"msg"`
		Data  playData `json:"data"`
	}
	if err := live.FetchJSON(ctx, r.client, playEndpoint+url.PathEscape(roomID)+"?"+query.Encode(), nil, &envelope); err != nil {
		return nil, err
	}
	if envelope.Error != 0 {
		return nil, merr.WrapErrParse(playEndpoint, "error "+strconv.Itoa(envelope.Error)+": "+envelope.Msg)
	}
	return &envelope.Data, nil
}
