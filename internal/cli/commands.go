package cli

import (
	"fmt"

	"github.com/JonMunkholm/csvloc/internal/translation"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newExtractCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "extract [file]...",
		Short: "Extract localizable cells into the translation store",
		Long: `Extract reads each file, collects the cells of its localizable columns
and saves them as source strings in the translation store.

Without arguments every file under the project directory that matches a
file type is extracted.`,
		Example: `  # Extract all strings of one file
  csvloc extract res/strings.csv

  # Extract the whole project
  csvloc extract

  # Use a Postgres store
  csvloc extract --store-driver postgres --store-url "$DATABASE_URL" res/*.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			args, err = e.files(cmd, args)
			if err != nil {
				return err
			}

			total := 0
			for _, arg := range args {
				rs, err := e.service.Extract(cmd.Context(), arg)
				if err != nil {
					return fmt.Errorf("extract %s: %w", arg, err)
				}
				printf(cmd.OutOrStdout(), "%s: %d strings\n", arg, len(rs))
				total += len(rs)
			}
			if len(args) > 1 {
				printf(cmd.OutOrStdout(), "total: %d strings\n", total)
			}
			return nil
		},
	}
}

func newLocalizeCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "localize [file]...",
		Short: "Write localized copies of files",
		Long: `Localize writes one copy of each file per target locale, with the
localizable cells replaced by their stored translations. Output paths come
from the file type's path template.

Without arguments every file under the project directory that matches a
file type is localized.`,
		Example: `  # Localize into the project's locales
  csvloc localize res/strings.csv

  # Localize into explicit locales
  csvloc localize --locales fr-FR,de-DE res/strings.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			args, err = e.files(cmd, args)
			if err != nil {
				return err
			}

			for _, arg := range args {
				outputs, err := e.service.LocalizeFile(cmd.Context(), arg, nil)
				if err != nil {
					return fmt.Errorf("localize %s: %w", arg, err)
				}
				for _, out := range outputs {
					printf(cmd.OutOrStdout(), "%s\n", out)
				}
			}
			return nil
		},
	}
}

func newMergeCommand(opts *globalOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "merge <target> <source>",
		Short: "Merge the records of source into target by key",
		Long: `Merge adds the columns of source that target lacks, overwrites the
records of target whose key appears in source and appends the rest.
The result replaces target unless --out is given.`,
		Example: `  csvloc merge res/strings.csv updates/strings.csv
  csvloc merge --out merged.csv res/strings.csv updates/strings.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			outPath := out
			if outPath != "" {
				outPath = e.path(outPath)
			}
			stats, err := e.service.MergeFiles(cmd.Context(), e.path(args[0]), e.path(args[1]), outPath)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "columns added: %d, updated: %d, appended: %d\n",
				stats.ColumnsAdded, stats.Updated, stats.Appended)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write the merged file here instead of over target")
	return cmd
}

func newShowCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Print a file as parsed, one row per record",
		Long: `Show parses the file with its file type settings and prints the records
as a table. Localizable columns are marked with *.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			f, err := e.service.ReadFile(cmd.Context(), e.path(args[0]))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			records := f.Records()
			if len(records) == 0 {
				printf(w, "(0 records)\n")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(w)
			t.SetStyle(table.StyleLight)

			cols := f.Columns()
			header := make(table.Row, len(cols))
			for i, col := range cols {
				name := col.Name
				if col.Localizable {
					name += "*"
				}
				header[i] = name
			}
			t.AppendHeader(header)

			for _, rec := range records {
				row := make(table.Row, len(cols))
				for i, col := range cols {
					row[i] = rec[col.Name]
				}
				t.AppendRow(row)
			}

			t.Render()
			printf(w, "(%d records, key: %q, separator: %q)\n", len(records), f.Key(), string(f.Separator()))
			return nil
		},
	}
}

func newTranslationsCommand(opts *globalOptions) *cobra.Command {
	var locale string

	cmd := &cobra.Command{
		Use:   "translations",
		Short: "List stored resources",
		Long: `Translations lists the resources in the translation store. Without
--locale the extracted source strings are listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			rs, err := e.store.List(cmd.Context(), locale)
			if err != nil {
				return err
			}
			renderResources(cmd, rs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&locale, "locale", "l", "", "target locale to list")
	return cmd
}

func renderResources(cmd *cobra.Command, rs []translation.Resource) {
	w := cmd.OutOrStdout()
	if len(rs) == 0 {
		printf(w, "(0 resources)\n")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Path", "Source", "Locale", "Target"})
	for _, r := range rs {
		t.AppendRow(table.Row{r.Path, r.Source, r.TargetLocale, r.Target})
	}
	t.Render()
	printf(w, "(%d resources)\n", len(rs))
}
