package ws

import (
	"time"

	"go.uber.org/zap"
)

// DefaultKeepaliveInterval is the heartbeat period while connected.
const DefaultKeepaliveInterval = 30 * time.Second

type pingFrame struct {
	Action string `json:"action"`
}

// startKeepaliveLocked launches the heartbeat goroutine for the current
// connection. Caller holds c.mu. The returned stop channel is owned by the
// connection generation that started it; stopKeepaliveLocked closes it on
// any close and on disconnect.
func (c *Channel) startKeepaliveLocked() {
	stop := make(chan struct{})
	c.kaStop = stop
	sock := c.sock
	interval := c.opts.KeepaliveInterval

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := sock.WriteJSON(pingFrame{Action: "ping"}); err != nil {
					// The read loop will observe the same failure and
					// drive the close path; nothing to do here.
					c.log.Debug("keepalive write failed", zap.Error(err))
					return
				}
				c.metrics.FrameOut("ping")
			}
		}
	}()
}

// stopKeepaliveLocked stops the heartbeat if one is running. Caller holds c.mu.
func (c *Channel) stopKeepaliveLocked() {
	if c.kaStop != nil {
		close(c.kaStop)
		c.kaStop = nil
	}
}
