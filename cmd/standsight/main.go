package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/aibes/standsight/internal/analytics"
	"github.com/aibes/standsight/internal/chart"
	"github.com/aibes/standsight/internal/config"
	"github.com/aibes/standsight/internal/dashboard"
	"github.com/aibes/standsight/internal/dbsession"
	"github.com/aibes/standsight/internal/logger"
	"github.com/aibes/standsight/internal/metrics"
	"github.com/aibes/standsight/internal/notify"
	"github.com/aibes/standsight/internal/report"
	"github.com/aibes/standsight/internal/reportstore"
	"github.com/aibes/standsight/internal/server"
	settingsservice "github.com/aibes/standsight/internal/settings/service"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		metrics.Module,
		fx.Provide(RegisterSnowflake),

		// Functional domains
		dbsession.Module,
		analytics.Module,
		chart.Module,
		settingsservice.Module,
		reportstore.Module,
		report.Module,
		notify.Module,
		dashboard.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
