package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"duobook/internal/api"
	"duobook/internal/config"
	"duobook/internal/ledger"
	"duobook/internal/querycache"
	"duobook/pkg/logging"
)

// errReported marks failures the notifier already showed to the user.
var errReported = errors.New("reported")

type app struct {
	cfg     *config.Config
	tokens  *api.FileTokenSource
	client  *api.Client
	service *ledger.Service
	manager *querycache.Manager
	stdin   *bufio.Reader
}

func main() {
	// Load .env file for local development (ignore errors when absent).
	_ = godotenv.Load()
	logging.Setup()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg)
	defer a.close()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		switch {
		case errors.Is(err, errReported):
			// The notifier already told the user.
		case api.IsAuth(err):
			fmt.Fprintln(os.Stderr, "권한이 없습니다. 먼저 `duobook login` 으로 로그인하세요.")
		default:
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newApp(cfg *config.Config) *app {
	tokens := &api.FileTokenSource{Path: cfg.TokenFile}
	client := api.New(cfg.APIBaseURL, tokens, &http.Client{Timeout: cfg.HTTPTimeout})

	a := &app{
		cfg:    cfg,
		tokens: tokens,
		client: client,
		stdin:  bufio.NewReader(os.Stdin),
	}
	a.service = ledger.NewService(client, a, a, ledger.Config{
		PageLimit: cfg.PageLimit,
		Parties:   cfg.Parties,
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
	})

	a.manager = querycache.NewManager()
	a.service.RegisterCaches(a.manager)
	a.manager.StartCleanup(time.Minute)
	return a
}

func (a *app) close() {
	a.service.Flush()
	a.manager.Stop()
}

// Success implements ledger.Notifier.
func (a *app) Success(message string) {
	fmt.Println(message)
}

// Error implements ledger.Notifier.
func (a *app) Error(message string) {
	fmt.Fprintln(os.Stderr, message)
}

// Confirm implements ledger.Confirmer with a y/N prompt.
func (a *app) Confirm(message string) bool {
	fmt.Printf("%s [y/N] ", message)
	line, err := a.stdin.ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "signup":
		return a.cmdSignUp(ctx, args)
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		return a.cmdLogout()
	case "whoami":
		return a.cmdWhoAmI(ctx)
	case "add":
		return a.cmdAdd(ctx, args)
	case "list":
		return a.cmdList(ctx, args)
	case "edit":
		return a.cmdEdit(ctx, args)
	case "delete":
		return a.cmdDelete(ctx, args)
	case "settle":
		return a.cmdSettle(ctx, args)
	case "month":
		return a.cmdMonth(ctx, args)
	case "upload":
		return a.cmdUpload(ctx, args)
	case "rm-upload":
		return a.cmdRemoveUpload(ctx, args)
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `duobook - 둘이서 쓰는 공동 가계부

Usage:
  duobook <command> [flags]

Commands:
  signup     -email -nickname -password  회원가입 후 로그인
  login      -email -password            로그인
  logout                                 저장된 토큰 삭제
  whoami                                 로그인된 사용자 확인
  add        -date -price -desc          내역 추가
  list       [-month 2024-05] [-mine]    사용내역 조회
  edit       -id [-date] [-price] [-desc] 내역 수정
  delete     -id                         내역 삭제
  settle     [-month 2024-05]            정산
  month      [-month 2024-05]            월 사용 금액과 추이
  upload     <file>                      파일 업로드
  rm-upload  <key>                       업로드 삭제
`)
}
