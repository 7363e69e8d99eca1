package engine

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// InitializeSchedules starts all the cron jobs (currently just the idle session sweep)
func (serverHandler *ServerHandler) InitializeSchedules() *cron.Cron {
	interval := serverHandler.ServerConfig.SweepInterval
	if interval <= 0 {
		interval = 5
	}

	c := cron.New()
	var sweepJob cron.Job
	sweepJob = cron.FuncJob(serverHandler.sweepJobFunc)
	sweepJob = cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(sweepJob) //ensure we don't kick off another if old one is still running
	if _, err := c.AddJob(fmt.Sprintf("@every %dm", interval), sweepJob); err != nil {
		Logger.Error("Unable to schedule session sweep", "error", err)
		return c
	}
	Logger.Info("Adding session sweep scheduler", "interval_minutes", interval, "ttl", serverHandler.ServerConfig.SessionTTL)
	c.Start()
	return c
}

func (serverHandler *ServerHandler) sweepJobFunc() {
	if expired := serverHandler.Sessions.Expire(); expired > 0 {
		Logger.Info("Session sweep finished", "expired", expired, "live", serverHandler.Sessions.Len())
	}
}
