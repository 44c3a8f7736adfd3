package flags

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gorm.io/gorm/logger"

	"github.com/reviewdeck/reviewdeck/pkg/db"
)

// Gorm Log Level Custom Flag Type
type logLevel logger.LogLevel

const (
	LogLevelInfo   = "info"
	LogLevelWarn   = "warn"
	LogLevelError  = "error"
	LogLevelSilent = "silent"
)

func (l *logLevel) String() string {
	switch *l {
	case logLevel(logger.Info):
		return LogLevelInfo
	case logLevel(logger.Warn):
		return LogLevelWarn
	case logLevel(logger.Error):
		return LogLevelError
	case logLevel(logger.Silent):
		return LogLevelSilent
	}

	return LogLevelInfo
}

func (l *logLevel) Set(v string) error {
	switch v {
	case LogLevelInfo:
		*l = logLevel(logger.Info)
	case LogLevelWarn:
		*l = logLevel(logger.Warn)
	case LogLevelError:
		*l = logLevel(logger.Error)
	case LogLevelSilent:
		*l = logLevel(logger.Silent)
	default:
		return fmt.Errorf("unknown gorm log level: %s", v)
	}

	return nil
}

func (l *logLevel) Type() string {
	return "logLevel"
}

// DatabaseFlags contains the set of flags needed to connect to the
// review store. The DSN defaults to an embedded sqlite file; a
// postgres DSN switches backends.
type DatabaseFlags struct {
	LogLevel logLevel
	DSN      string
}

func NewDatabaseFlags(dsn string) *DatabaseFlags {
	if dsn == "" {
		dsn = os.Getenv("REVIEWS_DB_DSN")
		if dsn == "" {
			dsn = "reviews.db"
		}
	}

	return &DatabaseFlags{
		LogLevel: logLevel(logger.Info),
		DSN:      dsn,
	}
}

func (f *DatabaseFlags) BindFlags(fs *pflag.FlagSet) {
	fs.Var(&f.LogLevel, "db-log-level", "GORM database log level")
	fs.StringVar(&f.DSN, "database-dsn", f.DSN, "Database DSN; a sqlite file path or a postgres connection string")
}

func (f *DatabaseFlags) GetDBClient() (*db.DB, error) {
	dbc, err := db.New(f.DSN, logger.LogLevel(f.LogLevel))
	if err != nil {
		log.WithError(err).Error("could not connect to db")
		return nil, err
	}

	return dbc, nil
}
