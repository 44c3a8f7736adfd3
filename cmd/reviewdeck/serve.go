package main

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/reviewdeck/reviewdeck/pkg/db/models"
	"github.com/reviewdeck/reviewdeck/pkg/flags"
	"github.com/reviewdeck/reviewdeck/pkg/nlp"
	"github.com/reviewdeck/reviewdeck/pkg/server"
)

type ServerFlags struct {
	AIFlags  *flags.AIFlags
	APIFlags *flags.APIFlags
	DBFlags  *flags.DatabaseFlags

	InitDatabase bool
}

func NewServerFlags() *ServerFlags {
	return &ServerFlags{
		AIFlags:  flags.NewAIFlags(),
		APIFlags: flags.NewAPIFlags(),
		DBFlags:  flags.NewDatabaseFlags(""),
	}
}

func (f *ServerFlags) BindFlags(flagSet *pflag.FlagSet) {
	f.AIFlags.BindFlags(flagSet)
	f.APIFlags.BindFlags(flagSet)
	f.DBFlags.BindFlags(flagSet)

	flagSet.BoolVar(&f.InitDatabase, "init-database", false, "Migrate the DB before serving")
}

func NewServeCommand() *cobra.Command {
	f := NewServerFlags()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the review analytics server",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbc, err := f.DBFlags.GetDBClient()
			if err != nil {
				return errors.WithMessage(err, "couldn't get DB client")
			}

			if f.InitDatabase {
				if err := dbc.UpdateSchema(); err != nil {
					return errors.WithMessage(err, "could not migrate db")
				}
			}

			// Make sure the db is initialized, otherwise let the user know:
			reviews := []models.Review{}
			res := dbc.DB.Limit(1).Find(&reviews)
			if res.Error != nil {
				return errors.WithMessage(res.Error, "error querying for a review, database may need to be initialized with --init-database")
			}

			srv := server.New(
				f.APIFlags.ListenAddr,
				dbc,
				nlp.NewVaderClassifier(),
				f.AIFlags.GetRecommender(),
			)

			if f.APIFlags.MetricsAddr != "" {
				go func() {
					log.Infof("Serving metrics on %s", f.APIFlags.MetricsAddr)
					if err := http.ListenAndServe(f.APIFlags.MetricsAddr, promhttp.Handler()); err != nil {
						log.WithError(err).Error("metrics listener exited")
					}
				}()
			}

			srv.Serve()
			return nil
		},
	}

	f.BindFlags(cmd.Flags())
	return cmd
}
