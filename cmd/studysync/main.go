package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/dkeye/StudySync/internal/client"
	"github.com/dkeye/StudySync/internal/core"
	"github.com/dkeye/StudySync/internal/domain"
)

func main() {
	server := pflag.String("server", "ws://localhost:4000/ws", "StudySync WebSocket endpoint")
	room := pflag.String("room", "", "room id to join (required)")
	name := pflag.String("name", "", "display name; defaults to the one stored with the last session")
	state := pflag.String("state", defaultStatePath(), "file holding the resume record")
	observe := pflag.Bool("observe", false, "watch the room without joining unless a session can be resumed")
	reconnect := pflag.Duration("reconnect", 2*time.Second, "delay between reconnect attempts")
	verbose := pflag.BoolP("verbose", "v", false, "debug logging")
	pflag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *room == "" {
		fmt.Fprintln(os.Stderr, "--room is required")
		pflag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sess := client.NewSession(client.Options{
		RoomID:      *room,
		DisplayName: *name,
		Store:       client.NewFileStore(afero.NewOsFs(), *state),
	})
	view := &roomView{}
	runner := &client.Runner{
		Session: sess,
		Dial: func(ctx context.Context) (client.EventConn, error) {
			c, err := client.Dial(ctx, *server)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		ReconnectDelay: *reconnect,
		StartFresh:     !*observe,
		OnEvent:        view.handle,
	}

	go readCommands(ctx, cancel, sess)

	if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("runner stopped")
	}
	fmt.Printf("left %s after %ds\n", *room, sess.Duration())
}

// readCommands turns stdin lines into chat messages and session controls.
func readCommands(ctx context.Context, cancel context.CancelFunc, sess *client.Session) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := sc.Text()
		var err error
		switch strings.TrimSpace(line) {
		case "/quit":
			cancel()
			return
		case "/pause":
			err = sess.Pause()
		case "/resume":
			err = sess.Resume()
		default:
			err = sess.SendChat(line)
		}
		if err != nil {
			log.Error().Err(err).Msg("command failed")
		}
	}
}

type roomView struct {
	self domain.ConnID
}

func (v *roomView) handle(ev client.Event) {
	switch ev.Name {
	case core.EventWelcome:
		var p core.WelcomePayload
		if err := ev.Decode(&p); err == nil {
			v.self = p.ConnectionID
		}
	case core.EventRoomUpdate:
		var snap core.Snapshot
		if err := ev.Decode(&snap); err != nil {
			log.Warn().Err(err).Msg("bad roomUpdate")
			return
		}
		v.printSnapshot(snap)
	case core.EventChatHistory:
		var entries []core.ChatEntry
		if err := ev.Decode(&entries); err != nil {
			log.Warn().Err(err).Msg("bad chatHistory")
			return
		}
		for _, e := range entries {
			fmt.Printf("  %s: %s\n", e.UserName, e.Message)
		}
	case core.EventChatUpdate:
		var e core.ChatEntry
		if err := ev.Decode(&e); err == nil {
			fmt.Printf("%s: %s\n", e.UserName, e.Message)
		}
	}
}

func (v *roomView) printSnapshot(snap core.Snapshot) {
	ids := make([]domain.ConnID, 0, len(snap))
	for id := range snap {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return snap[ids[i]].UserName < snap[ids[j]].UserName })

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		e := snap[id]
		label := fmt.Sprintf("%s %ds", e.UserName, e.Duration)
		if e.IsHost {
			label += " (host)"
		}
		if id == v.self {
			label += " (you)"
		}
		parts = append(parts, label)
	}
	fmt.Printf("\r[%s]\n", strings.Join(parts, " | "))
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".studysync-session.json"
	}
	return filepath.Join(home, ".studysync", "session.json")
}
