// Command bot is a headless automated player: it joins a server, sways
// its blocker, takes aimed shots through the local simulator and reports
// the outcomes, readying up again after every match. Two bots make a full
// self-playing session, which is handy for soaking the server.
package main

import (
	"context"
	"flag"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dstepanov/goalduel/internal/client"
	"github.com/dstepanov/goalduel/internal/sim"
)

type botController struct {
	ticks      int
	readySent  bool
	aimPlanned bool
}

func (b *botController) Tick(c *client.Client) {
	b.ticks++

	switch c.CurrentPhase() {
	case client.PhaseMatchOver:
		if !b.readySent {
			c.SetReady(true)
			b.readySent = true
		}
		return
	case client.PhaseMenu:
		return
	}
	b.readySent = false

	// Sway the blocker between the posts.
	c.MoveTo(math.Sin(float64(b.ticks)*sim.DT) * sim.BlockerMaxX)

	if !c.Sim.CanShoot() {
		b.aimPlanned = false
		return
	}
	if !b.aimPlanned {
		// Pick a spot inside the goal mouth, with some scatter so a share
		// of shots go wide or into the keeper.
		c.Aim = sim.NewAim()
		c.Aim.Adjust(rand.Float64()*0.8-0.4, rand.Float64()*0.3-0.1)
		b.aimPlanned = true
	}
	// Short breather between shots, roughly a second.
	if b.ticks%sim.TickRate == 0 {
		c.Shoot()
	}
}

func main() {
	var (
		url   = flag.String("url", "ws://localhost:3000/ws", "server websocket URL")
		name  = flag.String("name", "Bot", "player name")
		color = flag.String("color", "blue", "team color (red or blue)")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(ctx, *url, *name, *color, log)
	if err != nil {
		log.Fatal().Err(err).Str("url", *url).Msg("dial failed")
	}
	defer c.Close()
	c.SetController(&botController{})

	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("client loop failed")
	}
	log.Info().Int("attempts", c.Tally().Attempts).Msg("bot done")
}
