package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/fetchview/internal/config"
	"github.com/rshade/fetchview/internal/logging"
)

// setupLogging configures logging from the config's logging section and the
// --debug flag, then stores the logger and a trace ID in the command context.
func setupLogging(cmd *cobra.Command, loggingCfg config.LoggingConfig) logging.LogPathResult {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		loggingCfg.Level = "debug"
	}

	result := logging.NewLoggerWithPath(loggingCfg.ToLoggingConfig())
	logger := logging.ComponentLogger(result.Logger, "cli")

	if result.UsingFile {
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	} else if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	ctx := cmd.Context()
	ctx = logging.ContextWithTraceID(ctx, logging.GetOrGenerateTraceID(ctx))
	ctx = logger.WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Debug().Ctx(ctx).Str("command", cmd.Name()).Msg("command started")

	return result
}
