package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"battle-companion/internal/battle"
	"battle-companion/internal/config"
	"battle-companion/internal/judgeclient"
	"battle-companion/internal/logging"

	"github.com/rs/zerolog/log"
)

const usage = `usage: battle-cli match [1v1|ai]
       battle-cli create
       battle-cli join CODE`

func main() {
	intent, err := parseIntent(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logCfg.Stderr = true
	logging.Init(logCfg)
	clientCfg, err := config.LoadClient()
	if err != nil {
		log.Fatal().Err(err).Msg("load client config failed")
	}
	cliCfg, err := config.LoadCLI()
	if err != nil {
		log.Fatal().Err(err).Msg("load cli config failed")
	}

	remote := judgeclient.NewBattleRemote(judgeclient.New(clientCfg), clientCfg)
	coord := battle.NewCoordinator(context.Background(), remote, battle.OptionsFromConfig(clientCfg, 0))
	os.Exit(run(coord, intent, cliCfg.ConflictPolicy))
}

func parseIntent(args []string) (battle.Intent, error) {
	if len(args) == 0 {
		return battle.Intent{}, fmt.Errorf("missing command")
	}
	switch args[0] {
	case "match":
		mode := ""
		if len(args) > 1 {
			mode = args[1]
		}
		m, err := battle.ParseMode(mode)
		if err != nil {
			return battle.Intent{}, fmt.Errorf("unknown mode %q", mode)
		}
		if m == battle.ModeAI {
			return battle.VersusAI(), nil
		}
		return battle.OneVOne(), nil
	case "create":
		return battle.CreateRoomIntent(), nil
	case "join":
		if len(args) < 2 || strings.TrimSpace(args[1]) == "" {
			return battle.Intent{}, fmt.Errorf("join needs a room code")
		}
		return battle.JoinRoomIntent(args[1]), nil
	default:
		return battle.Intent{}, fmt.Errorf("unknown command %q", args[0])
	}
}

// run drives one intent to completion and returns the exit code. Interrupt
// cancels whatever is in progress.
func run(coord *battle.Coordinator, intent battle.Intent, policy string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer coord.Wait()
	defer coord.Close()

	events := coord.Feed().Subscribe()
	startErr := make(chan error, 1)
	go func() { startErr <- coord.Start(ctx, intent) }()

	started := false
	for {
		select {
		case <-ctx.Done():
			coord.Cancel()
			fmt.Println("cancelled")
			return 130
		case err := <-startErr:
			if err != nil {
				fmt.Fprintf(os.Stderr, "battle failed: %s (%v)\n", battle.ErrorCode(err), err)
				return 1
			}
			started = true
		case ev, ok := <-events:
			if !ok {
				return 1
			}
			printEvent(ev)
			if code, done := react(ctx, coord, ev.Snapshot, policy, started); done {
				return code
			}
		}
	}
}

func react(ctx context.Context, coord *battle.Coordinator, snap battle.Snapshot, policy string, started bool) (int, bool) {
	switch snap.State {
	case battle.StateMatchFound, battle.StateRoomReady:
		// A countdown, when there is one, has already replaced this state.
		if coord.Snapshot().State != snap.State {
			break
		}
		if _, err := coord.EnterRoom(); err != nil && !errors.Is(err, battle.ErrNothingToEnter) {
			fmt.Fprintf(os.Stderr, "enter failed: %v\n", err)
			return 1, true
		}
	case battle.StateReady, battle.StateResumed:
		if snap.WorkspaceURL != "" {
			fmt.Println(snap.WorkspaceURL)
			return 0, true
		}
	case battle.StateConflict:
		if snap.Error != "" {
			return 1, true
		}
		switch strings.ToLower(policy) {
		case "abandon":
			if err := coord.AbandonConflict(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "abandon failed: %v\n", err)
			}
		case "dismiss":
			coord.Cancel()
			return 0, true
		default:
			if _, err := coord.ResumeConflict(); err != nil {
				fmt.Fprintf(os.Stderr, "resume failed: %v\n", err)
				return 1, true
			}
		}
	case battle.StateAbandoned:
		return 0, true
	case battle.StateIdle:
		if snap.Error != "" {
			return 1, true
		}
		if started {
			return 0, true
		}
	}
	return 0, false
}

func printEvent(ev battle.Event) {
	s := ev.Snapshot
	var b strings.Builder
	fmt.Fprintf(&b, "%-18s", s.State)
	if s.Mode != "" {
		fmt.Fprintf(&b, " mode=%s", s.Mode)
	}
	if s.Room != nil {
		if s.Room.RoomID != "" {
			fmt.Fprintf(&b, " room=%s", s.Room.RoomID)
		}
		if s.Room.RoomCode != "" {
			fmt.Fprintf(&b, " code=%s", s.Room.RoomCode)
		}
	}
	if s.OpponentID != "" {
		fmt.Fprintf(&b, " opponent=%s", s.OpponentID)
	}
	if s.ProblemID != "" {
		fmt.Fprintf(&b, " problem=%s", s.ProblemID)
	}
	if s.RemainingSeconds != nil {
		fmt.Fprintf(&b, " remaining=%d", *s.RemainingSeconds)
	}
	if s.Conflict != nil {
		fmt.Fprintf(&b, " existing_room=%s active=%t", s.Conflict.RoomID, s.Conflict.IsActiveBattle)
	}
	if s.Error != "" {
		fmt.Fprintf(&b, " error=%q", s.Error)
	}
	fmt.Println(b.String())
}
