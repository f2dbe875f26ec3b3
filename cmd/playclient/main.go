// Command playclient drives one game against a running server: two players
// join, each fires random moves until the game is decided, and the board is
// printed once per poll interval.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/tictactoe/internal/client"
	"github.com/robalobadob/tictactoe/internal/game"
)

func main() {
	endpoint := flag.String("endpoint", "http://localhost:5175", "server base URL")
	gameID := flag.String("game", "", "session id (default: a fresh uuid)")
	poll := flag.Duration("poll", time.Second, "board poll interval")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := client.New(*endpoint)
	id := *gameID
	if id == "" {
		id = uuid.NewString()
	}
	g := c.Game(id)

	players := []game.Player{
		{ID: rand.Int63(), Name: "Player I"},
		{ID: rand.Int63(), Name: "Player II"},
	}
	for _, p := range players {
		ok, err := g.Join(ctx, p.ID, p.Name)
		if err != nil {
			log.Fatal().Err(err).Str("gameId", id).Msg("join")
		}
		if !ok {
			log.Warn().Str("gameId", id).Str("name", p.Name).Msg("failed to join game")
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	for _, p := range players {
		go playRandom(ctx, g, p.ID)
	}

	t := time.NewTicker(*poll)
	defer t.Stop()
	for {
		b, err := g.Board(ctx)
		if err != nil {
			log.Fatal().Err(err).Str("gameId", id).Msg("board")
		}
		printBoard(b.Board)
		if b.Winner != "" {
			fmt.Printf("\n ***** Winner is: %s *****\n", b.Winner)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// playRandom keeps submitting moves; rejections just mean "try again".
func playRandom(ctx context.Context, g *client.Game, playerID int64) {
	rnd := rand.New(rand.NewSource(playerID))
	for {
		res, err := g.Move(ctx, playerID, rnd.Intn(game.BoardSize), rnd.Intn(game.BoardSize))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Int64("playerId", playerID).Msg("move")
		} else if res.Winner != "" {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(500+rnd.Intn(500)) * time.Millisecond):
		}
	}
}

func printBoard(b game.Board) {
	var sb strings.Builder
	sb.WriteString("\033[H\033[2J")
	for i, c := range b {
		sb.WriteString(" " + c.Glyph() + " ")
		if (i+1)%game.BoardSize == 0 {
			sb.WriteByte('\n')
		}
	}
	fmt.Print(sb.String())
}
