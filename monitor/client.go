package monitor

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"mkpbt/population"
)

// publish drives one websocket connection: a read pump (to detect client
// disconnects and pong frames, per gorilla/websocket's contract that
// something must call ReadMessage for control frames to be processed) race
// against a write loop that periodically pushes a JSON Population
// snapshot. Grounded on the teacher's publishEleUpdates
// (tabular/server/server.go), generalized from a single ad hoc goroutine
// plus select loop into an errgroup of two cooperatively-cancelled
// goroutines, the same coordination tool the teacher's fastview client
// pulls in for its own read/write split.
func publish(ctx context.Context, ws *websocket.Conn, pop *population.Population, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)

	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	group.Go(func() error {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return err
			}
		}
	})

	group.Go(func() error {
		ticker := channerics.NewTicker(ctx.Done(), publishPeriod)
		pinger := channerics.NewTicker(ctx.Done(), pingPeriod)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-pinger:
				if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return err
				}
			case <-ticker:
				if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					return err
				}
				if err := ws.WriteJSON(pop.ReadAll()); err != nil {
					return err
				}
			}
		}
	})

	return group.Wait()
}
