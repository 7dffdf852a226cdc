package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/hylla/outliner/internal/adapters/server"
	"github.com/hylla/outliner/internal/adapters/server/common"
	"github.com/hylla/outliner/internal/app"
	"github.com/hylla/outliner/internal/domain"
	"github.com/hylla/outliner/internal/outline"
	"github.com/hylla/outliner/internal/platform"
)

// newPathsCommand prints the resolved config and data locations.
func newPathsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data and log paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(out, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

// newSheetsCommand lists sheets.
func newSheetsCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "List sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, stderr, false, func(rt *session) error {
				sheets, err := rt.svc.ListSheets(cmd.Context())
				if err != nil {
					return fmt.Errorf("list sheets: %w", err)
				}
				for _, sheet := range sheets {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", sheet.ID, sheet.Name, sheet.Kind)
				}
				return nil
			})
		},
	}
}

// newNewSheetCommand creates a sheet.
func newNewSheetCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, stderr, false, func(rt *session) error {
				sheet, err := rt.svc.CreateSheet(cmd.Context(), args[0], domain.SheetKind(strings.ToLower(kind)))
				if err != nil {
					return fmt.Errorf("create sheet: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", sheet.ID, sheet.Name, sheet.Kind)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(domain.SheetTraits), "sheet kind (traits, skills, equipment, notes)")
	return cmd
}

// newRenameSheetCommand renames a sheet.
func newRenameSheetCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <sheet> <name>",
		Short: "Rename a sheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, stderr, false, func(rt *session) error {
				sheet, err := rt.svc.FindSheet(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if _, err := rt.svc.RenameSheet(cmd.Context(), sheet.ID, args[1]); err != nil {
					return fmt.Errorf("rename sheet: %w", err)
				}
				return nil
			})
		},
	}
}

// newDeleteSheetCommand deletes a sheet and its rows.
func newDeleteSheetCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <sheet>",
		Short: "Delete a sheet and its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, stderr, false, func(rt *session) error {
				sheet, err := rt.svc.FindSheet(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := rt.svc.DeleteSheet(cmd.Context(), sheet.ID); err != nil {
					return fmt.Errorf("delete sheet: %w", err)
				}
				return nil
			})
		},
	}
}

// addOptions holds the add command's flags.
type addOptions struct {
	parentID  string
	container bool
	kind      string
	points    int
	quantity  int
	weight    float64
	reference string
	notes     string
}

// newAddCommand appends a row to a sheet, optionally under a parent.
func newAddCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var in addOptions
	cmd := &cobra.Command{
		Use:   "add <sheet> <name>",
		Short: "Add a row to a sheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, stderr, false, func(rt *session) error {
				ctx := cmd.Context()
				sheet, err := rt.svc.FindSheet(ctx, args[0])
				if err != nil {
					return err
				}
				doc, err := rt.svc.OpenDocument(ctx, sheet.ID)
				if err != nil {
					return fmt.Errorf("open sheet: %w", err)
				}
				entry := app.NewEntry{
					Name:      args[1],
					Kind:      in.kind,
					Container: in.container,
					Points:    in.points,
					Quantity:  in.quantity,
					Weight:    in.weight,
					Reference: in.reference,
					Notes:     in.notes,
				}
				if in.parentID != "" {
					parent := doc.FindRow(in.parentID)
					if parent == nil {
						return fmt.Errorf("parent %q: %w", in.parentID, app.ErrNotFound)
					}
					doc.Reveal(parent)
					entry.AsChild = true
				}
				row, err := doc.AddEntry(entry)
				if err != nil {
					return fmt.Errorf("add row: %w", err)
				}
				if err := rt.svc.SaveDocument(ctx, doc); err != nil {
					return fmt.Errorf("save sheet: %w", err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), app.EntryOf(row).ID)
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&in.parentID, "parent", "", "id of the container row to add under")
	flags.BoolVar(&in.container, "container", false, "create a row that can hold children")
	flags.StringVar(&in.kind, "kind", "", "entry kind")
	flags.IntVar(&in.points, "points", 0, "point cost")
	flags.IntVar(&in.quantity, "quantity", 0, "quantity")
	flags.Float64Var(&in.weight, "weight", 0, "weight")
	flags.StringVar(&in.reference, "ref", "", "page reference")
	flags.StringVar(&in.notes, "notes", "", "markdown notes")
	return cmd
}

// newTreeCommand prints a sheet as a table.
func newTreeCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "tree <sheet>",
		Short: "Print a sheet's rows as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, stderr, false, func(rt *session) error {
				sheet, err := rt.svc.FindSheet(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				doc, err := rt.svc.OpenDocument(cmd.Context(), sheet.ID)
				if err != nil {
					return fmt.Errorf("open sheet: %w", err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderTree(doc, all))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include rows under closed containers")
	return cmd
}

// renderTree renders doc's rows in tree order with one column per field.
func renderTree(doc *app.Document, all bool) string {
	defs := doc.Columns()
	headers := make([]string, len(defs))
	for i, def := range defs {
		headers[i] = def.Title
	}

	var rows [][]string
	var walk func(list []*outline.Row, depth int)
	walk = func(list []*outline.Row, depth int) {
		for _, row := range list {
			cells := make([]string, len(defs))
			for i, def := range defs {
				cells[i] = row.Content().FieldText(def.Key)
				if def.ID == domain.NameColumnID {
					cells[i] = strings.Repeat("  ", depth) + treeMarker(row) + cells[i]
				}
			}
			rows = append(rows, cells)
			if all || row.IsOpen() {
				walk(row.Children(), depth+1)
			}
		}
	}
	walk(doc.Model().TopLevelRows(), 0)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			if col < len(defs) && defs[col].Numeric {
				style = style.Align(lipgloss.Right)
			}
			return style
		})
	return t.Render()
}

func treeMarker(row *outline.Row) string {
	switch {
	case !row.CanHaveChildren():
		return ""
	case row.IsOpen():
		return "▾ "
	default:
		return "▸ "
	}
}

// newSortCommand sorts a sheet by one column and saves the order.
func newSortCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var (
		desc      bool
		clearSort bool
	)
	cmd := &cobra.Command{
		Use:   "sort <sheet> [column]",
		Short: "Sort a sheet by a column",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, stderr, false, func(rt *session) error {
				ctx := cmd.Context()
				sheet, err := rt.svc.FindSheet(ctx, args[0])
				if err != nil {
					return err
				}
				doc, err := rt.svc.OpenDocument(ctx, sheet.ID)
				if err != nil {
					return fmt.Errorf("open sheet: %w", err)
				}
				switch {
				case clearSort:
					err = doc.ClearSort()
				case len(args) < 2:
					return fmt.Errorf("column is required unless --clear is set")
				default:
					def, ok := domain.FindColumn(doc.Columns(), args[1])
					if !ok {
						return fmt.Errorf("column %q: %w", args[1], app.ErrUnknownColumn)
					}
					err = doc.SetSort(def.ID, !desc)
				}
				if err != nil {
					return fmt.Errorf("sort sheet: %w", err)
				}
				if err := rt.svc.SaveDocument(ctx, doc); err != nil {
					return fmt.Errorf("save sheet: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().BoolVar(&clearSort, "clear", false, "clear the stored sort")
	return cmd
}

// newExportCommand writes a snapshot of every sheet.
func newExportCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every sheet as snapshot JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, stderr, false, func(rt *session) error {
				snap, err := rt.svc.ExportSnapshot(cmd.Context())
				if err != nil {
					return fmt.Errorf("export snapshot: %w", err)
				}
				encoded, err := app.EncodeSnapshot(snap)
				if err != nil {
					return fmt.Errorf("encode snapshot json: %w", err)
				}
				encoded = append(encoded, '\n')
				if outPath == "-" {
					if _, err := cmd.OutOrStdout().Write(encoded); err != nil {
						return fmt.Errorf("write snapshot to stdout: %w", err)
					}
					return nil
				}
				if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
					return fmt.Errorf("create export output dir: %w", err)
				}
				if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
					return fmt.Errorf("write export file: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

// newImportCommand loads a snapshot file.
func newImportCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import sheets from snapshot JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return fmt.Errorf("--in is required")
			}
			return withSession(cmd, opts, stderr, false, func(rt *session) error {
				content, err := os.ReadFile(inPath)
				if err != nil {
					return fmt.Errorf("read import file: %w", err)
				}
				snap, err := app.DecodeSnapshot(content)
				if err != nil {
					return fmt.Errorf("decode snapshot json: %w", err)
				}
				if err := rt.svc.ImportSnapshot(cmd.Context(), snap); err != nil {
					return fmt.Errorf("import snapshot: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON file")
	return cmd
}

// newServeCommand serves the HTTP API and MCP endpoints until interrupted.
func newServeCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var bind, apiEndpoint, mcpEndpoint string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sheets over the HTTP API and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, stderr, false, func(rt *session) error {
				cfg := server.Config{
					HTTPBind:      firstNonEmpty(bind, rt.cfg.Server.HTTPBind),
					APIEndpoint:   firstNonEmpty(apiEndpoint, rt.cfg.Server.APIEndpoint),
					MCPEndpoint:   firstNonEmpty(mcpEndpoint, rt.cfg.Server.MCPEndpoint),
					ServerName:    platform.DefaultAppName,
					ServerVersion: version,
				}
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return server.Run(ctx, cfg, server.Dependencies{
					Sheets: common.NewAppServiceAdapter(rt.svc),
					OnListen: func(addr string) {
						rt.logger.Info("server listening", "addr", addr)
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", addr)
					},
				})
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&bind, "http", "", "listen address (defaults to server.http_bind)")
	flags.StringVar(&apiEndpoint, "api-endpoint", "", "HTTP API mount path")
	flags.StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP endpoint path")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
