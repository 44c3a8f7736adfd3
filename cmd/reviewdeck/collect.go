package main

import (
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/reviewdeck/reviewdeck/pkg/dataloader"
	"github.com/reviewdeck/reviewdeck/pkg/dataloader/loaderwithmetrics"
	"github.com/reviewdeck/reviewdeck/pkg/dataloader/reviewloader"
	"github.com/reviewdeck/reviewdeck/pkg/flags"
)

type CollectFlags struct {
	DBFlags *flags.DatabaseFlags

	AppID        string
	Country      string
	HowMany      int
	Source       string
	InitDatabase bool
}

func NewCollectFlags() *CollectFlags {
	return &CollectFlags{
		DBFlags: flags.NewDatabaseFlags(""),
		Country: "us",
		HowMany: 100,
		Source:  "auto",
	}
}

func (f *CollectFlags) BindFlags(fs *pflag.FlagSet) {
	f.DBFlags.BindFlags(fs)

	fs.StringVar(&f.AppID, "app-id", "", "Numeric app store identifier to collect reviews for")
	fs.StringVar(&f.Country, "country", f.Country, "2-letter storefront country code")
	fs.IntVar(&f.HowMany, "how-many", f.HowMany, "Maximum number of collected reviews to consider for insertion")
	fs.StringVar(&f.Source, "source", f.Source, "Collection source (auto or rss)")
	fs.BoolVar(&f.InitDatabase, "init-database", false, "Migrate the DB before loading")
}

func (f *CollectFlags) Validate() error {
	if f.AppID == "" {
		return fmt.Errorf("--app-id is required")
	}
	if len(f.Country) != 2 {
		return fmt.Errorf("--country must be a 2-letter storefront code")
	}
	if f.HowMany < 1 || f.HowMany > 1000 {
		return fmt.Errorf("--how-many must be between 1 and 1000")
	}
	return nil
}

func NewCollectCommand() *cobra.Command {
	f := NewCollectFlags()

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect reviews from the store feed into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.Validate(); err != nil {
				return errors.WithMessage(err, "error validating options")
			}

			dbc, err := f.DBFlags.GetDBClient()
			if err != nil {
				return errors.WithMessage(err, "could not get db client")
			}
			if f.InitDatabase {
				if err := dbc.UpdateSchema(); err != nil {
					return errors.WithMessage(err, "could not migrate db")
				}
			}

			loader := reviewloader.New(dbc, f.AppID, f.Country, f.HowMany, f.Source)
			l := loaderwithmetrics.New([]dataloader.DataLoader{loader})
			l.Load()

			for _, loadErr := range l.Errors() {
				log.WithError(loadErr).Warn("non-fatal error during review collection")
			}

			inserted, netNew := loader.Results()
			log.WithFields(log.Fields{
				"app":     f.AppID,
				"country": f.Country,
			}).Infof("collection complete: %d inserted, %d net new", inserted, netNew)

			return nil
		},
	}

	f.BindFlags(cmd.Flags())
	return cmd
}
