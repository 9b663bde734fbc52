package main

import (
	"context"
	"time"
)

// background runs fn on its own goroutine, recovering panics so a failed
// email or push send can never take the request handler down with it.
func (app *application) background(fn func()) {
	go func() {
		defer func() {
			if err := recover(); err != nil {
				app.logger.Errorw("background task panicked", "error", err)
			}
		}()
		fn()
	}()
}

func (app *application) pruneStaleTokensDaily() {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := app.pushTokens.PruneStaleTokens(ctx, 90*24*time.Hour)
			cancel()
			if err != nil {
				app.logger.Errorf("Error pruning stale push tokens: %v", err)
			} else {
				app.logger.Infof("Pruned stale push tokens at %s", time.Now().Format(time.RFC1123))
			}
		}
	}()
}
