package migrate

import (
	"context"
	"fmt"
	"os"

	"github.com/angelmondragon/la-reminders/pkg/logger"
)

// gooseLogger routes goose progress output into the structured logger.
type gooseLogger struct {
	ctx  context.Context
	logg *logger.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.logg.Debug(g.ctx, fmt.Sprintf(format, v...))
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.logg.Error(g.ctx, fmt.Sprintf(format, v...), nil)
	os.Exit(1)
}
