package cli

import (
	"fmt"

	"github.com/dilshat/gift-courier/model"
	"github.com/dilshat/gift-courier/profile"
	"github.com/spf13/cobra"
)

// NewResetCommand creates the reset command.
func NewResetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Move every unfinished delivery back to the waiting state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deliveryDao, closeStore, err := openStore(opts)
			if err != nil {
				return err
			}
			defer closeStore()

			n, err := deliveryDao.ResetAllNonDelivered()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d deliveries reset\n", n)
			return err
		},
	}
}

type CreateOptions struct {
	*RootOptions
	Recipient string
	Now       bool
}

// NewCreateCommand creates a delivery without asking the marketplace.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <code>",
		Short: "Create a delivery for an order code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ref string
			if opts.Recipient != "" {
				if ref = profile.FindURL(opts.Recipient); ref == "" {
					return fmt.Errorf("invalid profile link %q", opts.Recipient)
				}
			}

			deliveryDao, closeStore, err := openStore(opts.RootOptions)
			if err != nil {
				return err
			}
			defer closeStore()

			delay := opts.Config.DeliveryDelay
			if opts.Now {
				delay = 0
			}
			d, err := deliveryDao.Create(args[0], delay)
			if err != nil {
				return err
			}
			if ref != "" {
				d, err = deliveryDao.Mutate(d.Code, func(d *model.Delivery) error {
					d.RecipientRef = ref
					return nil
				})
				if err != nil {
					return err
				}
			}
			return writeJSON(cmd.OutOrStdout(), d)
		},
	}

	cmd.Flags().StringVarP(&opts.Recipient, "recipient", "r", "", "recipient profile link")
	cmd.Flags().BoolVar(&opts.Now, "now", false, "make the delivery due immediately")

	return cmd
}

// NewShowCommand prints one delivery, or all of them without an argument.
func NewShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [code]",
		Short: "Print deliveries as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deliveryDao, closeStore, err := openStore(opts)
			if err != nil {
				return err
			}
			defer closeStore()

			if len(args) == 0 {
				all, err := deliveryDao.GetAll()
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), all)
			}

			d, err := deliveryDao.Get(args[0])
			if err != nil {
				return fmt.Errorf("delivery %s: %w", args[0], err)
			}
			return writeJSON(cmd.OutOrStdout(), d)
		},
	}
}
