package douyu

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/live-garden-go/internal/live"
	"github.com/lk2023060901/live-garden-go/internal/pool/ringbuffer"
	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

const (
	danmuServerAddr   = "danmuproxy.douyu.com:8601"
	heartbeatInterval = 45 * time.Second
)

// Connect 建立弹幕 TCP 连接，发送进房控制帧并启动心跳与读循环。
func (r *Resolver) Connect(ctx context.Context, roomID string, opts live.ConnectOptions) (*live.Session, error) {
	info, err := r.fetchRoomInfo(ctx, roomID)
	if err != nil {
		return nil, err
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", danmuServerAddr)
	if err != nil {
		return nil, merr.WrapErrTransport(err, "dial "+danmuServerAddr)
	}

	login := sttMarshal(map[string]string{
		"type":     "loginreq",
		"roomid":   info.RoomID,
		"dfl":      "sn@A=105@Sss@A=1",
		"username": "",
		"uid":      "0",
		"ver":      "20190610",
	})
	joinGroup := sttMarshal(map[string]string{
		"type": "joingrp",
		"rid":  info.RoomID,
		"gid":  "-9999",
	})
	for _, payload := range []string{login, joinGroup} {
		if _, err := conn.Write(encodeFrame(payload)); err != nil {
			conn.Close()
			return nil, merr.WrapErrTransport(err, "send join frame")
		}
	}

	if opts.Blocklist == nil {
		opts.Blocklist = DefaultBlocklist
	}

	session, sctx := live.NewSession(ctx, live.Douyu, info.RoomID)
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

func runHeartbeat(ctx context.Context, conn net.Conn) error {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	keepalive := encodeFrame(sttMarshal(map[string]string{"type": "mrkl"}))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := conn.Write(keepalive); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return merr.WrapErrTransport(err, "send heartbeat")
			}
		}
	}
}

// readLoop 持续读取 TCP 字节流，经环形缓冲拆帧后逐条分发。
func readLoop(ctx context.Context, session *live.Session, conn net.Conn, opts live.ConnectOptions) error {
	rb := ringbuffer.Get()
	defer ringbuffer.Put(rb)

	chunk := make([]byte, 4096)
	for {
		n, err := conn.Read(chunk)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			wrapped := merr.WrapErrTransport(err, "read stream")
			session.EmitError(wrapped)
			return wrapped
		}
		rb.Write(chunk[:n])

		payloads, err := scanFrames(rb)
		for _, payload := range payloads {
			dispatchMessage(session, payload, opts)
		}
		if err != nil {
			session.EmitError(err)
			return err
		}
	}
}

// dispatchMessage 按消息类型分发一条 STT 文本。
func dispatchMessage(session *live.Session, payload string, opts live.ConnectOptions) {
	fields := sttUnmarshal(payload)
	switch fields["type"] {
	case "chatmsg":
		handleChat(session, fields, opts)
	case "loginres":
		session.EmitStatus("joined")
	case "rss":
		// 开关播通知：ss=1 开播。
		if fields["ss"] == "1" {
			session.EmitStatus("live started")
		} else {
			session.EmitStatus("live ended")
		}
	case "error":
		session.EmitError(merr.WrapErrParse("danmaku server", "error code "+fields["code"]))
	case "mrkl":
		// 心跳回包，忽略。
	default:
		session.Logger().RatedDebug(1, "ignore message", zap.String("type", fields["type"]))
	}
}

func handleChat(session *live.Session, fields map[string]string, opts live.ConnectOptions) {
	text := fields["txt"]
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
		Platform: live.Douyu,
		RoomID:   session.RoomID(),
		Method:   live.MethodChatMessage,
		User:     fields["nn"],
		Text:     comments[0].Text,
		Comments: comments,
	})
}
