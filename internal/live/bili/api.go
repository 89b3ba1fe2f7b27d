package bili

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lk2023060901/live-garden-go/internal/json"
	"github.com/lk2023060901/live-garden-go/internal/live"
	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

const (
	roomInfoEndpoint  = "https://api.live.bilibili.com/room/v1/Room/get_info"
	playURLEndpoint   = "https://api.live.bilibili.com/room/v1/Room/playUrl"
	danmuInfoEndpoint = "https://api.live.bilibili.com/xlive/web-room/v1/index/getDanmuInfo"
	navEndpoint       = "https://api.bilibili.com/x/web-interface/nav"
	fingerSpiEndpoint = "https://api.bilibili.com/x/frontend/finger/spi"

	liveReferer = "https://live.bilibili.com/"
)

// apiEnvelope 为平台接口统一的外层响应结构。
type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (r *Resolver) callAPI(ctx context.Context, rawURL string, out any) error {
	header := http.Header{}
	header.Set("Referer", liveReferer)
	if cookie := r.buvidCookie(ctx); cookie != "" {
		header.Set("Cookie", cookie)
	}

	var envelope apiEnvelope
	if err := live.FetchJSON(ctx, r.client, rawURL, header, &envelope); err != nil {
		return err
	}
	if envelope.Code != 0 {
		return merr.WrapErrParse(rawURL, "code "+strconv.Itoa(envelope.Code)+": "+envelope.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return merr.WrapErrParse(rawURL, err.Error())
	}
	return nil
}

// roomInfo 为 get_info 接口返回的房间信息子集。
type roomInfo struct {
	RoomID      int64  `json:"room_id"`
	ShortID     int64  `json:"short_id"`
	UID         int64  `json:"uid"`
	Title       string `json:"title"`
	LiveStatus  int    `json:"live_status"`
	UserCover   string `json:"user_cover"`
	Keyframe    string `json:"keyframe"`
	IsPortrait  bool   `json:"is_portrait"`
	Encrypted   bool   `json:"encrypted"`
	PwdVerified bool   `json:"pwd_verified"`
}

func (info *roomInfo) living() bool {
	return info.LiveStatus == 1
}

func (r *Resolver) fetchRoomInfo(ctx context.Context, roomID string) (*roomInfo, error) {
	query := url.Values{}
	query.Set("room_id", roomID)

	header := http.Header{}
	header.Set("Referer", liveReferer)

	var envelope apiEnvelope
	if err := live.FetchJSON(ctx, r.client, roomInfoEndpoint+"?"+query.Encode(), header, &envelope); err != nil {
		return nil, err
	}
	// 房间不存在时平台返回非零业务码。
	if envelope.Code != 0 {
		return nil, merr.WrapErrRoomNotFound(roomID, envelope.Message)
	}

	var info roomInfo
	if err := json.Unmarshal(envelope.Data, &info); err != nil {
		return nil, merr.WrapErrParse(roomInfoEndpoint, err.Error())
	}
	if info.RoomID == 0 {
		return nil, merr.WrapErrRoomNotFound(roomID)
	}
	if info.Encrypted && !info.PwdVerified {
		return nil, merr.WrapErrNeedsPassword(roomID)
	}
	return &info, nil
}

// playURLData 为 playUrl 接口返回的流地址信息子集。
type playURLData struct {
	CurrentQN          int   `json:"current_qn"`
	AcceptQuality      []any `json:"accept_quality"`
	QualityDescription []struct {
		QN   int    `json:"qn"`
		Desc string `json:"desc"`
	} `json:"quality_description"`
	DURL []struct {
		URL        string `json:"url"`
		BackupURLs []string `json:"backup_url"`
		Order      int    `json:"order"`
	} `json:"durl"`
}

func (r *Resolver) fetchPlayURL(ctx context.Context, realRoomID int64, qn int) (*playURLData, error) {
	query := url.Values{}
	query.Set("cid", strconv.FormatInt(realRoomID, 10))
	query.Set("qn", strconv.Itoa(qn))
	query.Set("platform", "web")

	var data playURLData
	if err := r.callAPI(ctx, playURLEndpoint+"?"+query.Encode(), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// danmuInfo 为 getDanmuInfo 接口返回的弹幕接入信息。
type danmuInfo struct {
	Token    string `json:"token"`
	HostList []struct {
		Host    string `json:"host"`
		Port    int    `json:"port"`
		WSPort  int    `json:"ws_port"`
		WSSPort int    `json:"wss_port"`
	} `json:"host_list"`
}

// fetchDanmuInfo 拉取弹幕口令与主机列表，查询参数需做 WBI 签名。
func (r *Resolver) fetchDanmuInfo(ctx context.Context, realRoomID int64) (*danmuInfo, error) {
	keys, err := r.wbiCache.GetOrRefresh(ctx, r.fetchWbiKeys)
	if err != nil {
		return nil, err
	}
	mixin := mixinKey(keys)
	if mixin == "" {
		return nil, merr.WrapErrSecretFetch("wbi", merr.WrapErrParse(navEndpoint, "mixin key material too short"))
	}

	query := url.Values{}
	query.Set("id", strconv.FormatInt(realRoomID, 10))
	query.Set("type", "0")
	query.Set("web_location", "444.8")
	signQuery(query, mixin, timeNow())

	var info danmuInfo
	if err := r.callAPI(ctx, danmuInfoEndpoint+"?"+query.Encode(), &info); err != nil {
		return nil, err
	}
	if info.Token == "" {
		return nil, merr.WrapErrParse(danmuInfoEndpoint, "empty token")
	}
	return &info, nil
}

// fetchWbiKeys 从 nav 接口读取 wbi_img 密钥对。
func (r *Resolver) fetchWbiKeys(ctx context.Context) (wbiKeys, error) {
	var data struct {
		WbiImg struct {
			ImgURL string `json:"img_url"`
			SubURL string `json:"sub_url"`
		} `json:"wbi_img"`
	}
	// nav 对未登录请求返回 code=-101，但 wbi_img 仍然有效，这里直接取原始响应。
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := live.FetchJSON(ctx, r.client, navEndpoint, nil, &envelope); err != nil {
		return wbiKeys{}, err
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return wbiKeys{}, merr.WrapErrParse(navEndpoint, err.Error())
	}
	keys := wbiKeys{
		Img: wbiKeyFromURL(data.WbiImg.ImgURL),
		Sub: wbiKeyFromURL(data.WbiImg.SubURL),
	}
	if !keys.valid() {
		return wbiKeys{}, merr.WrapErrParse(navEndpoint, "missing wbi keys")
	}
	return keys, nil
}

// fetchBuvid 从指纹接口取一次性的匿名设备标识。
func (r *Resolver) fetchBuvid(ctx context.Context) (string, error) {
	var data struct {
		B3 string `json:"b_3"`
	}
	var envelope apiEnvelope
	if err := live.FetchJSON(ctx, r.client, fingerSpiEndpoint, nil, &envelope); err != nil {
		return "", err
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return "", merr.WrapErrParse(fingerSpiEndpoint, err.Error())
	}
	if data.B3 == "" {
		return "", merr.WrapErrParse(fingerSpiEndpoint, "empty buvid3")
	}
	return data.B3, nil
}

// buvidCookie 返回携带 buvid3 的 Cookie 值，拉取失败时退化为空。
func (r *Resolver) buvidCookie(ctx context.Context) string {
	buvid, err := r.buvidCache.GetOrRefresh(ctx, r.fetchBuvid)
	if err != nil || buvid == "" {
		return ""
	}
	return "buvid3=" + buvid
}
