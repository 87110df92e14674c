package cmd

import (
	"github.com/spf13/cobra"

	"github.com/3leaps/gofirehose/pkg/firehose"
	m "github.com/3leaps/gofirehose/pkg/materialize"
)

func newTagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage delivery stream tags",
	}
	cmd.AddCommand(newTagAddCmd(a), newTagListCmd(a), newTagRemoveCmd(a))
	return cmd
}

func newTagAddCmd(a *app) *cobra.Command {
	var p firehose.TagParams

	cmd := &cobra.Command{
		Use:   "add <name> --tag key=value...",
		Short: "Add or overwrite tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyFlags(cmd.Flags())
			p.Name = m.Some(args[0])

			if err := a.requireWritable("tag add"); err != nil {
				return err
			}

			s, err := a.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			out, cfgErr := s.client.TagDeliveryStream(cmd.Context(), p, s.sel)
			return s.emit(cmd.Context(), "TagDeliveryStream", args[0], out, cfgErr)
		},
	}

	optStringMap(cmd.Flags(), &p.Tags, "tag", "Tag key=value (repeatable)")
	return cmd
}

func newTagListCmd(a *app) *cobra.Command {
	var p firehose.ListTagsParams

	cmd := &cobra.Command{
		Use:   "list <name>",
		Short: "List tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyFlags(cmd.Flags())
			p.Name = m.Some(args[0])

			s, err := a.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			out, cfgErr := s.client.ListTagsForDeliveryStream(cmd.Context(), p, s.sel)
			return s.emit(cmd.Context(), "ListTagsForDeliveryStream", args[0], out, cfgErr)
		},
	}

	optInt32(cmd.Flags(), &p.Limit, "limit", "Maximum number of tags to return")
	optString(cmd.Flags(), &p.ExclusiveStartTagKey, "exclusive-start-tag-key", "Tag key to start after")
	return cmd
}

func newTagRemoveCmd(a *app) *cobra.Command {
	var p firehose.UntagParams

	cmd := &cobra.Command{
		Use:   "remove <name> --key key...",
		Short: "Remove tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyFlags(cmd.Flags())
			p.Name = m.Some(args[0])

			if err := a.requireWritable("tag remove"); err != nil {
				return err
			}
			if ok, err := a.confirm(cmd, "remove tags from delivery stream "+args[0]); !ok {
				return err
			}

			s, err := a.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			out, cfgErr := s.client.UntagDeliveryStream(cmd.Context(), p, s.sel)
			return s.emit(cmd.Context(), "UntagDeliveryStream", args[0], out, cfgErr)
		},
	}

	optStringSlice(cmd.Flags(), &p.TagKeys, "key", "Tag key to remove (repeatable)")
	return cmd
}
