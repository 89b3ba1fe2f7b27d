package huya

import (
	"context"
	"encoding/base64"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lk2023060901/live-garden-go/internal/live"
	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

const (
	danmuWSEndpoint   = "wss://cdnws.api.huya.com/"
	heartbeatInterval = 60 * time.Second

	// WebSocketCommand 命令字。
	cmdRegisterGroup = 16
	cmdPushMessage   = 7

	// 推送消息 URI。
	uriMessageNotice = 1400
)

// heartbeatFrame 为服务端约定的固定心跳帧。
var heartbeatFrame, _ = base64.StdEncoding.DecodeString("ABQdAAwsNgBM")

// Connect 建立弹幕推送连接：注册房间订阅组后由服务端持续下发消息。
func (r *Resolver) Connect(ctx context.Context, roomID string, opts live.ConnectOptions) (*live.Session, error) {
	room, err := r.fetchProfileRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	subscriberID := room.Profile.YYID
	if subscriberID == 0 {
		subscriberID = room.Profile.UID
	}
	if subscriberID == 0 {
		// 主播信息里拿不到可用 id 时退回游客身份。
		subscriberID, err = r.uidCache.GetOrRefresh(ctx, r.fetchAnonymousUID)
		if err != nil {
			return nil, err
		}
	}

	header := http.Header{}
	header.Set("User-Agent", live.DefaultUserAgent)
	header.Set("Origin", "https://www.huya.com")

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, danmuWSEndpoint, header)
	if err != nil {
		return nil, merr.WrapErrTransport(err, "dial "+danmuWSEndpoint)
	}

	register := encodeRegisterGroup([]string{
		"live:" + strconv.FormatUint(subscriberID, 10),
		"chat:" + strconv.FormatUint(subscriberID, 10),
	})
	if err := conn.WriteMessage(websocket.BinaryMessage, register); err != nil {
		conn.Close()
		return nil, merr.WrapErrTransport(err, "send register frame")
	}

	if opts.Blocklist == nil {
		opts.Blocklist = DefaultBlocklist
	}

	session, sctx := live.NewSession(ctx, live.Huya, roomID)
	session.EmitStatus("joined")
	session.Go("conn-closer", func() error {
		<-sctx.Done()
		return conn.Close()
	})
	session.Go("heartbeat", func() error {
		return runHeartbeat(sctx, conn)
	})
	session.Go("read-loop", func() error {
		return readLoop(sctx, session, conn, opts)
	})
	return session, nil
}

// encodeRegisterGroup 组装订阅组注册帧。
func encodeRegisterGroup(groups []string) []byte {
	var req tarsWriter
	req.WriteStringList(0, groups)
	req.WriteString(1, "")

	var cmd tarsWriter
	cmd.WriteInt(0, cmdRegisterGroup)
	cmd.WriteBytes(1, req.Bytes())
	return cmd.Bytes()
}

func runHeartbeat(ctx context.Context, conn *websocket.Conn) error {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.BinaryMessage, heartbeatFrame); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return merr.WrapErrTransport(err, "send heartbeat")
			}
		}
	}
}

func readLoop(ctx context.Context, session *live.Session, conn *websocket.Conn, opts live.ConnectOptions) error {
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
		handleFrame(session, frame, opts)
	}
}

// handleFrame 解开一层 WebSocketCommand，只处理消息推送。
func handleFrame(session *live.Session, frame []byte, opts live.ConnectOptions) {
	cmd := newTarsReader(frame)
	cmdType, ok := cmd.ReadInt(0)
	if !ok || cmdType != cmdPushMessage {
		return
	}
	data, ok := cmd.ReadBytes(1)
	if !ok {
		return
	}

	push := newTarsReader(data)
	uri, ok := push.ReadInt(1)
	if !ok || uri != uriMessageNotice {
		return
	}
	payload, ok := push.ReadBytes(2)
	if !ok {
		return
	}
	handleMessageNotice(session, payload, opts)
}

// handleMessageNotice 解析弹幕通知并映射为事件。
// 发送者在 tag0 结构体内（昵称为 tag2），正文在 tag3。
func handleMessageNotice(session *live.Session, payload []byte, opts live.ConnectOptions) {
	notice := newTarsReader(payload)

	user := ""
	if notice.EnterStruct(0) {
		if nick, ok := notice.ReadString(2); ok {
			user = nick
		}
		notice.skipToStructEnd()
	}
	text, ok := notice.ReadString(3)
	if !ok {
		return
	}

	if live.Blocked(text, opts.Blocklist) {
		session.DropBlocked()
		return
	}
	comments := live.NormalizeComments([]live.Comment{{Text: text}})
	if len(comments) == 0 {
		session.DropEmpty()
		return
	}
	session.Emit(&live.DanmakuEvent{
		Platform: live.Huya,
		RoomID:   session.RoomID(),
		Method:   live.MethodChatMessage,
		User:     user,
		Text:     comments[0].Text,
		Comments: comments,
	})
}
