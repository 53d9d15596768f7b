package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"kyri56xcaesar/clubs-proj/internal/apiclient"
	"kyri56xcaesar/clubs-proj/internal/boardtui"
	"kyri56xcaesar/clubs-proj/internal/conf"
	"kyri56xcaesar/clubs-proj/internal/logger"
)

// session keeps the access token fresh for the poller.
type session struct {
	mu     sync.Mutex
	gw     *apiclient.Gateway
	tokens apiclient.Tokens
}

func (s *session) board(ctx context.Context, q apiclient.BoardQuery) (apiclient.Board, error) {
	s.mu.Lock()
	access := s.tokens.AccessToken
	s.mu.Unlock()

	b, err := s.gw.WithToken(access).Board(ctx, q)
	if apiclient.StatusOf(err) != http.StatusUnauthorized {
		return b, err
	}

	s.mu.Lock()
	t, rerr := s.gw.Refresh(ctx, s.tokens.RefreshToken)
	if rerr == nil {
		s.tokens = t
	}
	s.mu.Unlock()
	if rerr != nil {
		slog.Warn("token refresh failed", "error", rerr)
		return b, err
	}

	return s.gw.WithToken(t.AccessToken).Board(ctx, q)
}

func main() {
	confPath := flag.String("config", "configs/boardwatch.env", "path to the .env config")
	clubID := flag.Int64("club", 0, "show a single club (0 for all of your clubs)")
	username := flag.String("user", os.Getenv("BOARDWATCH_USER"), "username to log in with")
	token := flag.String("token", "", "use this access token instead of logging in")
	logPath := flag.String("log", "", "write logs to this file")
	flag.Parse()

	cfg := conf.Load(*confPath, "", "")

	var logOut io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to open log file:", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	slog.SetDefault(logger.New(logOut, cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := apiclient.New(cfg.ClubServiceAddress, cfg.AssignmentServiceAddress, cfg.DocumentServiceAddress, cfg.RequestTimeout)
	s := &session{gw: apiclient.NewGateway(cfg.FrontAddress, client)}

	if *token != "" {
		s.tokens.AccessToken = *token
	} else {
		t, err := s.gw.Login(ctx, *username, os.Getenv("BOARDWATCH_PASSWORD"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "login failed:", err)
			os.Exit(1)
		}
		s.tokens = t
	}

	slog.Info("boardwatch starting", "front", cfg.FrontAddress, "club", *clubID, "interval", cfg.PollInterval)
	if err := boardtui.Run(ctx, s.board, apiclient.BoardQuery{ClubID: *clubID}, cfg.PollInterval); err != nil {
		fmt.Fprintln(os.Stderr, "board:", err)
		os.Exit(1)
	}
}
