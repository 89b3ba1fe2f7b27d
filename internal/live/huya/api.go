package huya

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lk2023060901/live-garden-go/internal/json"
	"github.com/lk2023060901/live-garden-go/internal/live"
	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

const (
	profileRoomEndpoint = "https://mp.huya.com/cache.php"

	liveReferer = "https://www.huya.com/"
)

// streamSource 为一路源流（一个 CDN 一条）。
type streamSource struct {
	CdnType      string `json:"sCdnType"`
	StreamName   string `json:"sStreamName"`
	FlvURL       string `json:"sFlvUrl"`
	FlvURLSuffix string `json:"sFlvUrlSuffix"`
	FlvAntiCode  string `json:"sFlvAntiCode"`
	PresenterUID uint64 `json:"lPresenterUid"`
}

// bitRate 为一个清晰度档的描述，iBitRate 为 0 表示原画。
type bitRate struct {
	DisplayName string `json:"sDisplayName"`
	BitRate     int    `json:"iBitRate"`
}

// profileRoom 为 profileRoom 接口返回的数据子集。
type profileRoom struct {
	LiveStatus string `json:"liveStatus"`
	Profile    struct {
		Nick      string `json:"nick"`
		Avatar180 string `json:"avatar180"`
		YYID      uint64 `json:"yyid"`
		UID       uint64 `json:"uid"`
	} `json:"profileInfo"`
	LiveData struct {
		Introduction string `json:"introduction"`
		Screenshot   string `json:"screenshot"`
		BitRateInfo  string `json:"bitRateInfo"`
	} `json:"liveData"`
	Stream json.RawMessage `json:"stream"`
}

func (p *profileRoom) living() bool {
	return p.LiveStatus == "ON"
}

// sources 解析 stream 字段中的源流列表。
func (p *profileRoom) sources() []streamSource {
	if len(p.Stream) == 0 {
		return nil
	}
	var stream struct {
		BaseSteamInfoList []streamSource `json:"baseSteamInfoList"`
	}
	if err := json.Unmarshal(p.Stream, &stream); err != nil {
		return nil
	}
	return stream.BaseSteamInfoList
}

// bitRates 解析 liveData.bitRateInfo 中内嵌的 JSON 档位串。
func (p *profileRoom) bitRates() []bitRate {
	if p.LiveData.BitRateInfo == "" {
		return nil
	}
	var rates []bitRate
	if err := json.Unmarshal([]byte(p.LiveData.BitRateInfo), &rates); err != nil {
		return nil
	}
	return rates
}

func (r *Resolver) fetchProfileRoom(ctx context.Context, roomID string) (*profileRoom, error) {
	query := url.Values{}
	query.Set("m", "Live")
	query.Set("do", "profileRoom")
	query.Set("roomid", roomID)

	header := http.Header{}
	header.Set("Referer", liveReferer)

	var envelope struct {
		Status  int         `json:"status"`
		Message string      `json:"message"`
		Data    profileRoom `json:"data"`
	}
	if err := live.FetchJSON(ctx, r.client, profileRoomEndpoint+"?"+query.Encode(), header, &envelope); err != nil {
		return nil, err
	}
	if envelope.Status != 200 {
		return nil, merr.WrapErrRoomNotFound(roomID, envelope.Message)
	}
	if envelope.Data.LiveStatus == "" {
		return nil, merr.WrapErrRoomNotFound(roomID)
	}
	return &envelope.Data, nil
}

// anonymousLoginEndpoint 为匿名登录接口，下发游客 uid。
const anonymousLoginEndpoint = "https://udblgn.huya.com/web/anonymousLogin"

// fetchAnonymousUID 申请一个游客 uid。uid 走 access-id 缓存，有效期内复用。
func (r *Resolver) fetchAnonymousUID(ctx context.Context) (uint64, error) {
	body, err := json.Marshal(map[string]any{
		"appId":   5002,
		"byPass":  3,
		"context": "",
		"version": "2.4",
		"data":    map[string]any{},
	})
	if err != nil {
		return 0, merr.WrapErrParse(anonymousLoginEndpoint, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anonymousLoginEndpoint,
		bytes.NewReader(body))
	if err != nil {
		return 0, merr.WrapErrTransport(err, anonymousLoginEndpoint)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", live.DefaultUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, merr.WrapErrTransport(err, anonymousLoginEndpoint)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, merr.WrapErrTransportStatus(resp.StatusCode, anonymousLoginEndpoint)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, merr.WrapErrTransport(err, anonymousLoginEndpoint)
	}

	var envelope struct {
		ReturnCode int `json:"returnCode"`
		Data       struct {
			UID string `json:"uid"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return 0, merr.WrapErrParse(anonymousLoginEndpoint, err.Error())
	}
	if envelope.ReturnCode != 0 || envelope.Data.UID == "" {
		return 0, merr.WrapErrParse(anonymousLoginEndpoint, "missing anonymous uid")
	}
	uid, err := strconv.ParseUint(envelope.Data.UID, 10, 64)
	if err != nil {
		return 0, merr.WrapErrParse(anonymousLoginEndpoint, "bad anonymous uid "+envelope.Data.UID)
	}
	return uid, nil
}
