// livectl 为手工验证用的命令行工具：
// 解析直播间输入、解码清单、可选地接入弹幕并打印事件。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/lk2023060901/live-garden-go/application"
	"github.com/lk2023060901/live-garden-go/internal/json"
	"github.com/lk2023060901/live-garden-go/internal/live"
	zlog "github.com/lk2023060901/live-garden-go/pkg/log"

	// 平台实现通过 init 注册。
	_ "github.com/lk2023060901/live-garden-go/internal/live/bili"
	_ "github.com/lk2023060901/live-garden-go/internal/live/douyu"
	_ "github.com/lk2023060901/live-garden-go/internal/live/huya"
)

var (
	headline = color.New(color.FgCyan, color.Bold)
	okMark   = color.New(color.FgGreen)
	badMark  = color.New(color.FgRed)
	dimText  = color.New(color.Faint)
)

func main() {
	os.Exit(run())
}

func run() int {
	// .env 仅用于本地调试，不存在时静默忽略。
	_ = godotenv.Load()

	var (
		input     string
		resolveID string
		dumpJSON  bool
		connect   bool
		keepAll   bool
		_         = flag.String("config", "", "config file path")
	)
	flag.StringVar(&input, "input", "", "room input: platform:room, url, or bare room id")
	flag.StringVar(&resolveID, "resolve", "", "resolve a single variant by id instead of decoding the manifest")
	flag.BoolVar(&dumpJSON, "dump-json", false, "print the manifest/variant as JSON to stdout")
	flag.BoolVar(&connect, "connect", false, "connect to the danmaku feed and print events")
	flag.BoolVar(&keepAll, "keep-all", false, "keep variants without resolved urls")
	flag.Parse()

	if input == "" {
		fmt.Fprintln(os.Stderr, "livectl: --input is required")
		flag.Usage()
		return 2
	}

	app := application.New()
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "livectl: %v\n", err)
		return 1
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if connect {
		return runConnect(ctx, input, dumpJSON)
	}
	if resolveID != "" {
		return runResolveVariant(ctx, input, resolveID, dumpJSON)
	}
	return runDecode(ctx, input, dumpJSON, keepAll)
}

func runDecode(ctx context.Context, input string, dumpJSON, keepAll bool) int {
	opts := live.DefaultResolveOptions()
	if keepAll {
		opts.DropInaccessibleHighQualities = false
	}

	m, err := live.DecodeManifest(ctx, input, opts)
	if err != nil {
		badMark.Fprintf(os.Stderr, "decode failed: %v\n", err)
		return 1
	}

	printManifest(m)
	if dumpJSON {
		return dumpAsJSON(m)
	}
	return 0
}

func runResolveVariant(ctx context.Context, input, variantID string, dumpJSON bool) int {
	target, err := live.ParseTarget(input)
	if err != nil {
		badMark.Fprintf(os.Stderr, "bad input: %v\n", err)
		return 1
	}

	v, err := live.ResolveVariant(ctx, target.Platform, target.RoomID, variantID)
	if err != nil {
		badMark.Fprintf(os.Stderr, "resolve variant failed: %v\n", err)
		return 1
	}

	headline.Fprintf(os.Stderr, "%s/%s %s\n", target.Platform, target.RoomID, v.Label)
	fmt.Fprintf(os.Stderr, "  url: %s\n", v.URL)
	for _, backup := range v.BackupURLs {
		dimText.Fprintf(os.Stderr, "  backup: %s\n", backup)
	}
	if dumpJSON {
		return dumpAsJSON(v)
	}
	return 0
}

func runConnect(ctx context.Context, input string, dumpJSON bool) int {
	session, err := live.Connect(ctx, input, live.ConnectOptions{})
	if err != nil {
		badMark.Fprintf(os.Stderr, "connect failed: %v\n", err)
		return 1
	}

	headline.Fprintf(os.Stderr, "connected to %s/%s, ctrl-c to stop\n",
		session.Platform(), session.RoomID())

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev, ok := <-session.Events():
				if !ok {
					return nil
				}
				printEvent(ev, dumpJSON)
			}
		}
	})
	group.Go(func() error {
		<-gctx.Done()
		return session.Stop()
	})

	if err := group.Wait(); err != nil {
		badMark.Fprintf(os.Stderr, "session ended with error: %v\n", err)
		return 1
	}
	return 0
}

func printManifest(m *live.LiveManifest) {
	headline.Fprintf(os.Stderr, "%s/%s %q by %s\n", m.Platform, m.RoomID, m.Info.Title, m.Info.Name)
	if !m.Info.IsLiving {
		badMark.Fprintln(os.Stderr, "  not living")
		return
	}
	okMark.Fprintln(os.Stderr, "  living")
	for _, v := range m.Variants {
		mark := " "
		if v.URL != "" {
			mark = "*"
		}
		fmt.Fprintf(os.Stderr, "  %s %-10s quality=%d id=%s\n", mark, v.Label, v.Quality, v.ID)
		if v.URL != "" {
			dimText.Fprintf(os.Stderr, "      %s\n", v.URL)
		}
	}
}

// printEvent 打印一条弹幕事件。dumpJSON 时向标准输出写入单行 JSON，
// 便于下游程序按行消费。
func printEvent(ev *live.DanmakuEvent, dumpJSON bool) {
	if dumpJSON {
		if out, err := json.Marshal(ev); err == nil {
			fmt.Fprintln(os.Stdout, string(out))
		}
		return
	}
	switch ev.Method {
	case live.MethodChatMessage:
		fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", ev.Platform, ev.User, ev.Text)
	default:
		dimText.Fprintf(os.Stderr, "[%s] (%s) %s\n", ev.Platform, ev.Method, ev.Text)
	}
}

func dumpAsJSON(v any) int {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		badMark.Fprintf(os.Stderr, "marshal failed: %v\n", err)
		return 1
	}
	fmt.Fprintln(os.Stdout, string(out))
	return 0
}
