package bili

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lk2023060901/live-garden-go/internal/json"
	"github.com/lk2023060901/live-garden-go/internal/live"
	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

const heartbeatInterval = 30 * time.Second

// heartbeatBody 为历史遗留的心跳负载，服务端按原样回显。
const heartbeatBody = "[object Object]"

// authBody 为进房包负载。
type authBody struct {
	UID      int64  `json:"uid"`
	RoomID   int64  `json:"roomid"`
	Protover int    `json:"protover"`
	Platform string `json:"platform"`
	Type     int    `json:"type"`
	Key      string `json:"key"`
	Buvid    string `json:"buvid,omitempty"`
}

// Connect 建立弹幕 websocket 连接并启动读循环与心跳任务。
func (r *Resolver) Connect(ctx context.Context, roomID string, opts live.ConnectOptions) (*live.Session, error) {
	info, err := r.fetchRoomInfo(ctx, roomID)
	if err != nil {
		return nil, err
	}
	dmInfo, err := r.fetchDanmuInfo(ctx, info.RoomID)
	if err != nil {
		return nil, err
	}

	wsURL := pickDanmuHost(dmInfo)
	if wsURL == "" {
		return nil, merr.WrapErrParse(danmuInfoEndpoint, "empty host list")
	}

	header := http.Header{}
	header.Set("User-Agent", live.DefaultUserAgent)
	header.Set("Origin", "https://live.bilibili.com")
	buvid := ""
	if cookie := r.buvidCookie(ctx); cookie != "" {
		header.Set("Cookie", cookie)
		buvid = strings.TrimPrefix(cookie, "buvid3=")
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, merr.WrapErrTransport(err, "dial "+wsURL)
	}

	auth, _ := json.Marshal(authBody{
		UID:      0,
		RoomID:   info.RoomID,
		Protover: 3,
		Platform: "web",
		Type:     2,
		Key:      dmInfo.Token,
		Buvid:    buvid,
	})
	if err := conn.WriteMessage(websocket.BinaryMessage, encodePacket(opAuth, verInt, 1, auth)); err != nil {
		conn.Close()
		return nil, merr.WrapErrTransport(err, "send auth packet")
	}

	session, sctx := live.NewSession(ctx, live.Bilibili, strconv.FormatInt(info.RoomID, 10))
	session.Go("conn-closer", func() error {
		<-sctx.Done()
		return conn.Close()
	})
	session.Go("heartbeat", func() error {
		return runHeartbeat(sctx, conn)
	})
	session.Go("read-loop", func() error {
		return r.readLoop(sctx, session, conn, opts)
	})
	return session, nil
}

func pickDanmuHost(info *danmuInfo) string {
	for _, h := range info.HostList {
		if strings.TrimSpace(h.Host) == "" {
			continue
		}
		port := h.WSSPort
		if port <= 0 {
			port = 443
		}
		return "wss://" + h.Host + ":" + strconv.Itoa(port) + "/sub"
	}
	return ""
}

func runHeartbeat(ctx context.Context, conn *websocket.Conn) error {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	seq := uint32(2)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			pkt := encodePacket(opHeartbeat, verInt, seq, []byte(heartbeatBody))
			if err := conn.WriteMessage(websocket.BinaryMessage, pkt); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return merr.WrapErrTransport(err, "send heartbeat")
			}
			seq++
		}
	}
}

func (r *Resolver) readLoop(ctx context.Context, session *live.Session, conn *websocket.Conn, opts live.ConnectOptions) error {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			wrapped := merr.WrapErrTransport(err, "read frame")
			session.EmitError(wrapped)
			return wrapped
		}
		packets, err := decodePackets(frame)
		if err != nil {
			session.Logger().Warn("drop undecodable frame", zap.Error(err))
		}
		for i := range packets {
			r.handlePacket(session, &packets[i], opts)
		}
	}
}

func (r *Resolver) handlePacket(session *live.Session, p *packet, opts live.ConnectOptions) {
	switch p.Operation {
	case opAuthReply:
		var reply struct {
			Code int `json:"code"`
		}
		if err := json.Unmarshal(p.Payload, &reply); err != nil || reply.Code != 0 {
			session.EmitError(merr.WrapErrParse("auth reply", string(p.Payload)))
			return
		}
		session.EmitStatus("joined")
	case opHeartbeatReply:
		// 负载为人气值，忽略。
	case opMessage:
		r.handleNotification(session, p.Payload, opts)
	}
}

// handleNotification 处理 op5 业务通知。
func (r *Resolver) handleNotification(session *live.Session, payload []byte, opts live.ConnectOptions) {
	var msg struct {
		Cmd  string `json:"cmd"`
		Info []any  `json:"info"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return
	}
	cmd := msg.Cmd
	if idx := strings.Index(cmd, ":"); idx > 0 {
		cmd = cmd[:idx]
	}
	switch {
	case strings.HasPrefix(cmd, "DANMU_MSG"):
		r.handleDanmu(session, msg.Info, opts)
	case cmd == "LIVE":
		session.EmitStatus("live started")
	case cmd == "PREPARING":
		session.EmitStatus("live ended")
	case cmd == "CUT_OFF":
		session.EmitStatus("live cut off")
	}
}

// handleDanmu 将 DANMU_MSG 的 info 数组映射为弹幕事件。
//
// info[1] 为文本，info[2] 为用户数组 [uid, 昵称, ...]，
// 表情弹幕在 info[0][13] 处携带图片地址与宽度。
func (r *Resolver) handleDanmu(session *live.Session, info []any, opts live.ConnectOptions) {
	if len(info) < 3 {
		return
	}
	text := anyToString(info[1])
	if live.Blocked(text, opts.Blocklist) {
		session.DropBlocked()
		return
	}

	user := ""
	if userInfo, ok := info[2].([]any); ok && len(userInfo) > 1 {
		user = anyToString(userInfo[1])
	}

	comment := live.Comment{Text: text}
	if meta, ok := info[0].([]any); ok && len(meta) > 13 {
		if emoticon, ok := meta[13].(map[string]any); ok {
			comment.ImageURL = anyToString(emoticon["url"])
			comment.ImageWidth = int(anyToInt64(emoticon["width"]))
		}
	}

	comments := live.NormalizeComments([]live.Comment{comment})
	if len(comments) == 0 {
		session.DropEmpty()
		return
	}
	session.Emit(&live.DanmakuEvent{
		Platform: live.Bilibili,
		RoomID:   session.RoomID(),
		Method:   live.MethodChatMessage,
		User:     user,
		Text:     comments[0].Text,
		Comments: comments,
	})
}

func anyToString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatInt(int64(value), 10)
	default:
		return ""
	}
}

func anyToInt64(v any) int64 {
	switch value := v.(type) {
	case float64:
		return int64(value)
	case int64:
		return value
	case string:
		parsed, _ := strconv.ParseInt(value, 10, 64)
		return parsed
	default:
		return 0
	}
}
