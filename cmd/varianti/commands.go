package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dgallion1/varianti/internal/compare"
	"github.com/dgallion1/varianti/internal/diag"
	"github.com/dgallion1/varianti/internal/edition"
	"github.com/dgallion1/varianti/internal/render"
	"github.com/dgallion1/varianti/internal/schema"
	"github.com/spf13/cobra"
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "varianti",
		Short: "Witness projections of a TEI critical edition",
		Long: `Varianti reads a TEI edition encoded with parallel segmentation and
projects it onto a single witness.

It can:
  - list the declared witnesses and their dates
  - report encoding problems found while loading
  - print a witness as plain text, HTML or DOCX
  - compare two witnesses word by word`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("source", "s", os.Getenv("VARIANTI_SOURCE"), "TEI edition file")
	root.PersistentFlags().String("schema", os.Getenv("VARIANTI_SCHEMA"), "YAML vocabulary override")
	root.PersistentFlags().BoolP("verbose", "v", false, "log at debug level")
	root.PersistentFlags().Int("max-cells", compare.DefaultOptions().MaxCells, "word diff table limit before falling back to lines")

	root.AddCommand(witnessesCmd())
	root.AddCommand(timelineCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(projectCmd())
	root.AddCommand(compareCmd())
	return root
}

// openEdition loads the edition named by the persistent flags.
func openEdition(cmd *cobra.Command) (*edition.Service, error) {
	source, _ := cmd.Flags().GetString("source")
	schemaPath, _ := cmd.Flags().GetString("schema")
	verbose, _ := cmd.Flags().GetBool("verbose")
	maxCells, _ := cmd.Flags().GetInt("max-cells")

	if source == "" {
		return nil, fmt.Errorf("--source flag is required")
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	s, err := schema.LoadFile(schemaPath)
	if err != nil {
		return nil, err
	}
	return edition.New(edition.Options{
		Source: source,
		Schema: s,
		Diff:   compare.Options{MaxCells: maxCells},
	}, log)
}

func witnessesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "witnesses",
		Short: "List declared witnesses",
		Long: `List every witness declared in the edition header, oldest first
for the selectable ones. Witnesses without exactly one valid date are
listed as disabled with --all.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			svc, err := openEdition(cmd)
			if err != nil {
				return err
			}
			reg := svc.Snapshot().Registry
			ws := reg.Enabled()
			if all {
				ws = reg.All()
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tSTATUS\tLABEL")
			for _, w := range ws {
				status := "enabled"
				if !w.Enabled {
					status = "disabled"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", w.ID, w.DateString(), status, w.Label)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("all", false, "include disabled witnesses")
	return cmd
}

func timelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timeline",
		Short: "Print the witness timeline as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openEdition(cmd)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), svc.Snapshot().Registry.Timeline())
		},
	}
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Report encoding problems in the edition",
		Long: `Load the edition and print every warning found in the witness list
and in the apparatus. With --strict any warning makes the command fail.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			strict, _ := cmd.Flags().GetBool("strict")
			asJSON, _ := cmd.Flags().GetBool("json")
			svc, err := openEdition(cmd)
			if err != nil {
				return err
			}
			ws := svc.Snapshot().Warnings

			out := cmd.OutOrStdout()
			if asJSON {
				if ws == nil {
					ws = []diag.Warning{}
				}
				if err := writeJSON(out, ws); err != nil {
					return err
				}
			} else {
				for _, w := range ws {
					fmt.Fprintln(out, w.Error())
				}
				fmt.Fprintf(out, "%d warning(s)\n", len(ws))
			}

			if strict && len(ws) > 0 {
				return fmt.Errorf("edition has %d warning(s)", len(ws))
			}
			return nil
		},
	}
	cmd.Flags().Bool("strict", false, "fail when any warning is found")
	cmd.Flags().Bool("json", false, "print warnings as JSON")
	return cmd
}

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project <witness>",
		Short: "Print a witness projection",
		Long: `Project the edition onto one witness and print it.

Formats: text (default), html, docx. DOCX output needs --output.

Example:
  varianti project A --source edition.xml
  varianti project B --force --format html
  varianti project C --format docx --output C.docx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			prefix, _ := cmd.Flags().GetString("prefix")

			svc, err := openEdition(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			id := args[0]

			switch format {
			case "text":
				t, err := svc.Text(ctx, id, force)
				if err != nil {
					return err
				}
				return writeOutput(cmd, output, []byte(t.Text+"\n"))
			case "html":
				if prefix != "" && !render.ValidPrefix(prefix) {
					return fmt.Errorf("invalid --prefix %q", prefix)
				}
				h, err := svc.HTML(ctx, id, force, prefix)
				if err != nil {
					return err
				}
				return writeOutput(cmd, output, []byte(h.HTML+"\n"))
			case "docx":
				if output == "" {
					return fmt.Errorf("--output is required for docx")
				}
				return createFile(output, func(w io.Writer) error {
					return svc.WriteWitnessDOCX(ctx, w, id, force)
				})
			default:
				return fmt.Errorf("unknown format %q (use text, html or docx)", format)
			}
		},
	}
	cmd.Flags().Bool("force", false, "render the base reading inside the witness span")
	cmd.Flags().StringP("format", "f", "text", "output format: text, html, docx")
	cmd.Flags().StringP("output", "o", "", "write to a file instead of stdout")
	cmd.Flags().String("prefix", "", "anchor id prefix for html (default: the witness id)")
	return cmd
}

func compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <witness-a> <witness-b>",
		Short: "Compare two witnesses",
		Long: `Diff the projections of two witnesses word by word. Text only in the
first witness is removed, text only in the second is added.

Formats: summary (default), json, html, unified, docx.

Example:
  varianti compare A C
  varianti compare A C --format unified
  varianti compare A C --format docx --output A-C.docx`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")

			svc, err := openEdition(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, b := args[0], args[1]

			if format == "docx" {
				if output == "" {
					return fmt.Errorf("--output is required for docx")
				}
				return createFile(output, func(w io.Writer) error {
					return svc.WriteComparisonDOCX(ctx, w, a, b)
				})
			}

			c, err := svc.Compare(ctx, a, b)
			if err != nil {
				return err
			}
			switch format {
			case "summary":
				var sb strings.Builder
				s := c.Summary
				fmt.Fprintf(&sb, "%s -> %s\n", c.A, c.B)
				fmt.Fprintf(&sb, "  equal:      %d words\n", s.Equal)
				fmt.Fprintf(&sb, "  removed:    %d words\n", s.Removed)
				fmt.Fprintf(&sb, "  added:      %d words\n", s.Added)
				fmt.Fprintf(&sb, "  similarity: %.1f%%\n", s.Similarity*100)
				return writeOutput(cmd, output, []byte(sb.String()))
			case "json":
				var sb strings.Builder
				if err := writeJSON(&sb, c); err != nil {
					return err
				}
				return writeOutput(cmd, output, []byte(sb.String()))
			case "html":
				markup, err := compare.RenderHTML(c.Segments)
				if err != nil {
					return err
				}
				return writeOutput(cmd, output, []byte(markup+"\n"))
			case "unified":
				out, err := svc.Unified(c)
				if err != nil {
					return err
				}
				return writeOutput(cmd, output, out)
			default:
				return fmt.Errorf("unknown format %q (use summary, json, html, unified or docx)", format)
			}
		},
	}
	cmd.Flags().StringP("format", "f", "summary", "output format: summary, json, html, unified, docx")
	cmd.Flags().StringP("output", "o", "", "write to a file instead of stdout")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func createFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
