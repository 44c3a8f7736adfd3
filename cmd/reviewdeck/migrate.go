package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	gormlogger "gorm.io/gorm/logger"

	"github.com/reviewdeck/reviewdeck/pkg/db"
	"github.com/reviewdeck/reviewdeck/pkg/flags"
)

func NewMigrateCommand() *cobra.Command {
	f := flags.NewDatabaseFlags("")

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrates or initializes the database to the latest schema.",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbc, err := db.New(f.DSN, gormlogger.LogLevel(f.LogLevel))
			if err != nil {
				return errors.WithMessage(err, "could not connect to db")
			}

			if err := dbc.UpdateSchema(); err != nil {
				return errors.WithMessage(err, "could not migrate db")
			}

			return nil
		},
	}

	f.BindFlags(cmd.Flags())
	return cmd
}
