package middleware

import (
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/dzonerzy/go-chatopt/internal/pool"
)

var requestInfoPool = pool.NewPoolWithReset(
	func() *RequestInfo {
		return &RequestInfo{}
	},
	func(info *RequestInfo) {
		info.ID = ""
		info.Command = ""
		info.Sender = ""
		info.Args = info.Args[:0]
		info.StartTime = time.Time{}
		info.Duration = 0
		info.Error = nil
	},
)

// Logger logs every command execution to the configured output
func Logger(options ...MiddlewareOption) Middleware {
	config := newConfig(options)

	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			if config.LogLevel == LogLevelNone {
				return next(ctx)
			}

			info := requestInfoPool.Get()
			defer requestInfoPool.Put(info)

			info.Command = getCommandName(ctx)
			info.Sender = ctx.Sender()
			if id, ok := ctx.Get(InvocationIDKey).(string); ok {
				info.ID = id
			}
			info.Args = append(info.Args, ctx.Args()...)
			info.StartTime = time.Now()

			logRequest(config, info, "START")

			err := next(ctx)

			info.Duration = time.Since(info.StartTime)
			info.Error = err
			logRequest(config, info, getLogLevel(err))

			return err
		}
	}
}

func getLogLevel(err error) string {
	if err != nil {
		return "ERROR"
	}
	return "SUCCESS"
}

func logRequest(config *MiddlewareConfig, info *RequestInfo, level string) {
	if !shouldLog(config.LogLevel, level) || config.Output == nil {
		return
	}
	switch config.LogFormat {
	case LogFormatJSON:
		writeJSONLog(config.Output, info, level, config)
	default:
		writeTextLog(config.Output, info, level, config)
	}
}

func shouldLog(configLevel LogLevel, messageLevel string) bool {
	switch messageLevel {
	case "ERROR":
		return configLevel >= LogLevelError
	case "START":
		return configLevel >= LogLevelDebug
	default:
		return configLevel >= LogLevelInfo
	}
}

func writeTextLog(writer io.Writer, info *RequestInfo, level string, config *MiddlewareConfig) {
	buf := pool.GetBuffer(256)
	defer pool.PutBuffer(buf)

	*buf = append(*buf, '[')
	*buf = append(*buf, info.StartTime.Format("2006-01-02 15:04:05")...)
	*buf = append(*buf, "] "...)
	*buf = append(*buf, level...)
	*buf = append(*buf, " command="...)
	*buf = append(*buf, info.Command...)

	if info.ID != "" {
		*buf = append(*buf, " id="...)
		*buf = append(*buf, info.ID...)
	}
	if info.Sender != "" {
		*buf = append(*buf, " sender="...)
		*buf = append(*buf, info.Sender...)
	}
	if info.Duration > 0 {
		*buf = append(*buf, " duration="...)
		*buf = append(*buf, info.Duration.String()...)
	}
	if config.IncludeArgs && len(info.Args) > 0 {
		*buf = append(*buf, " args="...)
		for i, arg := range info.Args {
			if i > 0 {
				*buf = append(*buf, ' ')
			}
			*buf = strconv.AppendQuote(*buf, arg)
		}
	}
	if info.Error != nil {
		*buf = append(*buf, " error="...)
		*buf = strconv.AppendQuote(*buf, info.Error.Error())
	}
	*buf = append(*buf, '\n')

	//nolint:errcheck,gosec // Logging is best-effort; ignore write errors.
	writer.Write(*buf)
}

func writeJSONLog(writer io.Writer, info *RequestInfo, level string, config *MiddlewareConfig) {
	buf := pool.GetBuffer(512)
	defer pool.PutBuffer(buf)

	*buf = append(*buf, `{"timestamp":"`...)
	*buf = append(*buf, info.StartTime.Format(time.RFC3339)...)
	*buf = append(*buf, `","level":"`...)
	*buf = append(*buf, level...)
	*buf = append(*buf, `","command":`...)
	*buf = appendJSONString(*buf, info.Command)

	if info.ID != "" {
		*buf = append(*buf, `,"id":`...)
		*buf = appendJSONString(*buf, info.ID)
	}
	if info.Sender != "" {
		*buf = append(*buf, `,"sender":`...)
		*buf = appendJSONString(*buf, info.Sender)
	}
	if info.Duration > 0 {
		*buf = append(*buf, `,"duration_ms":`...)
		*buf = strconv.AppendInt(*buf, info.Duration.Milliseconds(), 10)
	}
	if config.IncludeArgs && len(info.Args) > 0 {
		*buf = append(*buf, `,"args":[`...)
		for i, arg := range info.Args {
			if i > 0 {
				*buf = append(*buf, ',')
			}
			*buf = appendJSONString(*buf, arg)
		}
		*buf = append(*buf, ']')
	}
	if info.Error != nil {
		*buf = append(*buf, `,"error":`...)
		*buf = appendJSONString(*buf, info.Error.Error())
	}
	*buf = append(*buf, "}\n"...)

	//nolint:errcheck,gosec // Logging is best-effort; ignore write errors.
	writer.Write(*buf)
}

func appendJSONString(buf []byte, s string) []byte {
	enc, _ := json.Marshal(s)
	return append(buf, enc...)
}

// JSONLogger creates a logger that outputs JSON lines to w
func JSONLogger(w io.Writer) Middleware {
	return Logger(WithOutput(w), WithLogFormat(LogFormatJSON))
}
