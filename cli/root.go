package cli

import (
	"encoding/json"
	"io"

	"github.com/dilshat/gift-courier/config"
	"github.com/dilshat/gift-courier/dao"
	"github.com/dilshat/gift-courier/log"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	DbPath  string

	Config config.Config
}

// NewRootCommand creates the root command of the courier.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "courier",
		Short: "Gift courier",
		Long:  "Delivers digital goods bought on the marketplace as gifts to the buyer's profile.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.DbPath != "" {
				cfg.DbPath = opts.DbPath
			}
			level := cfg.LogLevel
			if opts.Verbose {
				level = "debug"
			}
			if _, err := log.New(level, opts.Verbose); err != nil {
				return err
			}
			opts.Config = cfg
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.DbPath, "db", "", "path to the delivery store (overrides DB_PATH)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))

	return cmd
}

// openStore opens the delivery store for one-shot commands.
func openStore(opts *RootOptions) (dao.DeliveryDao, func() error, error) {
	db, err := dao.Open(opts.Config.DbPath)
	if err != nil {
		return nil, nil, err
	}
	return dao.NewDeliveryDao(db), db.Close, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
