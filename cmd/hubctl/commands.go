package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pagedao/hub-api/pkg/contenthub"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func wantJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func queryFlags(cmd *cobra.Command, chain, typeHint *string) {
	cmd.Flags().StringVar(chain, "chain", "", "chain to search (default: every supported chain)")
	cmd.Flags().StringVar(typeHint, "type", "", "content type to try first")
}

// NewPlanCommand prints the candidate order for an address without probing
func NewPlanCommand() *cobra.Command {
	var chain, typeHint string

	cmd := &cobra.Command{
		Use:   "plan <address>",
		Short: "Show the probe order for an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFromFlags(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			plan, err := rt.Service.Plan(contenthub.Query{
				Address:  args[0],
				Chain:    chain,
				TypeHint: contenthub.ContentType(typeHint),
			})
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), plan)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tCHAIN\tTYPE\tSOURCE")
			for i, c := range plan {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, c.Chain, c.Type, c.Source)
			}
			return tw.Flush()
		},
	}
	queryFlags(cmd, &chain, &typeHint)
	return cmd
}

// NewResolveCommand probes an address and prints the winning candidate
func NewResolveCommand() *cobra.Command {
	var chain, typeHint string

	cmd := &cobra.Command{
		Use:   "resolve <address>",
		Short: "Resolve an address to a chain and content type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFromFlags(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.Service.Resolve(cmd.Context(), contenthub.Query{
				Address:  args[0],
				Chain:    chain,
				TypeHint: contenthub.ContentType(typeHint),
			})
			var resErr *contenthub.ResolutionError
			if errors.As(err, &resErr) {
				for _, a := range resErr.Attempts {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s@%s: %v\n", a.Candidate.Type, a.Candidate.Chain, a.Err)
				}
			}
			if err != nil {
				return err
			}

			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"chain":    res.Candidate.Chain,
					"type":     res.Candidate.Type,
					"source":   res.Candidate.Source.String(),
					"info":     res.Info,
					"failures": len(res.Failures),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Resolved %s as %s on %s (%s)\n", args[0], res.Candidate.Type, res.Candidate.Chain, res.Candidate.Source)
			fmt.Fprintf(out, "Abandoned candidates: %d\n", len(res.Failures))
			keys := make([]string, 0, len(res.Info))
			for k := range res.Info {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "  %s: %v\n", k, res.Info[k])
			}
			return nil
		},
	}
	queryFlags(cmd, &chain, &typeHint)
	return cmd
}

// NewRegistryCommand groups registry inspection commands
func NewRegistryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the curated registry",
	}

	var chain string
	list := &cobra.Command{
		Use:   "list",
		Short: "List registry records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := contenthub.ParseChain(chain); err != nil {
				return err
			}
			rt, err := runtimeFromFlags(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			records := rt.Service.Registry().ListByChain(chain)
			if wantJSON(cmd) {
				items := make([]contenthub.Fields, len(records))
				for i, r := range records {
					items[i] = r.Fields()
				}
				return printJSON(cmd.OutOrStdout(), items)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ADDRESS\tCHAIN\tTYPE\tNAME\tFEATURED")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", r.Address, r.Chain, r.Type, r.Name, r.Featured)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&chain, "chain", "all", "chain to list")

	cmd.AddCommand(list)
	return cmd
}

// NewBookCommand prints a merged book record
func NewBookCommand() *cobra.Command {
	var chain string

	cmd := &cobra.Command{
		Use:   "book <address>",
		Short: "Fetch a book with its first token's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFromFlags(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			book, err := rt.Service.GetBook(cmd.Context(), args[0], chain)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), book)
		},
	}
	cmd.Flags().StringVar(&chain, "chain", "", "chain of the book (default: every supported chain)")
	return cmd
}

// NewAuthorCommand prints an author's merged cross-chain profile
func NewAuthorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "author <address>",
		Short: "Fetch an author profile from every chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFromFlags(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			profile, err := rt.Service.GetAuthor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), profile.Fields())
		},
	}
}
