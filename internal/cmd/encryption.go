package cmd

import (
	"github.com/spf13/cobra"

	"github.com/3leaps/gofirehose/pkg/firehose"
	m "github.com/3leaps/gofirehose/pkg/materialize"
)

func newEncryptionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encryption",
		Short: "Enable or disable server-side encryption",
	}
	cmd.AddCommand(newEncryptionStartCmd(a), newEncryptionStopCmd(a))
	return cmd
}

func newEncryptionStartCmd(a *app) *cobra.Command {
	var p firehose.StartEncryptionParams

	cmd := &cobra.Command{
		Use:   "start <name>",
		Short: "Enable server-side encryption",
		Long: `Enable server-side encryption.

Without --key-type the service default applies; --key-arn is only meaningful
with CUSTOMER_MANAGED_CMK.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyFlags(cmd.Flags())
			p.Name = m.Some(args[0])

			if err := a.requireWritable("encryption start"); err != nil {
				return err
			}

			s, err := a.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			out, cfgErr := s.client.StartDeliveryStreamEncryption(cmd.Context(), p, s.sel)
			return s.emit(cmd.Context(), "StartDeliveryStreamEncryption", args[0], out, cfgErr)
		},
	}

	optString(cmd.Flags(), &p.Encryption.KeyType, "key-type", "AWS_OWNED_CMK or CUSTOMER_MANAGED_CMK")
	optString(cmd.Flags(), &p.Encryption.KeyARN, "key-arn", "Customer managed KMS key ARN")
	return cmd
}

func newEncryptionStopCmd(a *app) *cobra.Command {
	var p firehose.StopEncryptionParams

	return &cobra.Command{
		Use:   "stop <name>",
		Short: "Disable server-side encryption",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Name = m.Some(args[0])

			if err := a.requireWritable("encryption stop"); err != nil {
				return err
			}
			if ok, err := a.confirm(cmd, "disable encryption for delivery stream "+args[0]); !ok {
				return err
			}

			s, err := a.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			out, cfgErr := s.client.StopDeliveryStreamEncryption(cmd.Context(), p, s.sel)
			return s.emit(cmd.Context(), "StopDeliveryStreamEncryption", args[0], out, cfgErr)
		},
	}
}
