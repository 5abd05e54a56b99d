package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/remap/remap/internal/config"
	"github.com/remap/remap/internal/domain/catalog"
	"github.com/remap/remap/internal/domain/clinical"
	"github.com/remap/remap/internal/domain/inventory"
	"github.com/remap/remap/internal/domain/linkage"
	"github.com/remap/remap/internal/domain/remap"
	"github.com/remap/remap/internal/platform/match"
	"github.com/remap/remap/internal/platform/mdf"
	"github.com/remap/remap/internal/platform/tabular"
	"github.com/remap/remap/internal/wizard"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "remap",
		Short: "Standardize submitted metadata against the archive schema",
	}

	rootCmd.AddCommand(schemaCmd())
	rootCmd.AddCommand(splitCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(clinicalCmd())
	rootCmd.AddCommand(programsCmd())
	rootCmd.AddCommand(inventoryCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles what every schema-driven command needs.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	model   *mdf.Model
	service *remap.Service
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := newLogger(cfg)
	model, err := loadModel(cfg)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	matcher := match.New(match.WithCutoff(cfg.MatchCutoff))
	return &app{
		cfg:     cfg,
		logger:  logger,
		model:   model,
		service: remap.NewService(model, matcher, logger),
	}, nil
}

// loadConfig serves the commands that run without a loaded schema.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, newLogger(cfg), nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
		logger = logger.Level(lvl)
	}
	return logger
}

// loadModel assembles the schema bundle: the three primary documents
// when configured, else a vocabulary-only model, with the legacy value
// set merged underneath as a fallback in both cases.
func loadModel(cfg *config.Config) (*mdf.Model, error) {
	var opts []mdf.Option
	if len(cfg.SingletonEntities) > 0 {
		opts = append(opts, mdf.WithSingletons(cfg.SingletonEntities...))
	}

	var model *mdf.Model
	if cfg.HasPrimarySchema() {
		m, err := mdf.Load(cfg.ModelFile, cfg.PropsFile, cfg.TermsFile, opts...)
		if err != nil {
			return nil, err
		}
		model = m
	} else {
		model = mdf.NewModel(nil, opts...)
	}

	if cfg.LegacyValuesFile != "" {
		legacy, err := mdf.LoadLegacyVocabularies(cfg.LegacyValuesFile)
		if err != nil {
			return nil, err
		}
		model.MergeVocabularies(legacy)
	}
	return model, nil
}

// readSource loads the flat source table, surfacing parser warnings
// through the logger instead of failing.
func readSource(path string, logger zerolog.Logger) (*tabular.Table, error) {
	if path == "" {
		return nil, fmt.Errorf("--source is required")
	}
	tbl, warnings, err := tabular.ReadFile(path)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		logger.Warn().Int("row", w.Row).Msg(w.Message)
	}
	return tbl, nil
}

// readMapping parses a YAML file of Entity.property: SourceColumn pairs.
func readMapping(path string) (remap.Mapping, error) {
	if path == "" {
		return nil, fmt.Errorf("--mapping is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var mapping remap.Mapping
	if err := yaml.Unmarshal(raw, &mapping); err != nil {
		return nil, fmt.Errorf("parse mapping %s: %w", path, err)
	}
	if len(mapping) == 0 {
		return nil, fmt.Errorf("mapping file %s is empty", path)
	}
	return mapping, nil
}

// readSubmission parses the collected-metadata JSON document.
func readSubmission(path string) (catalog.Submission, error) {
	var sub catalog.Submission
	raw, err := os.ReadFile(path)
	if err != nil {
		return sub, err
	}
	if err := json.Unmarshal(raw, &sub); err != nil {
		return sub, fmt.Errorf("parse submission %s: %w", path, err)
	}
	return sub, nil
}

// printResults writes each entity's validation report in schema order
// and returns the total issue count.
func printResults(results map[string]remap.Result, model *mdf.Model) int {
	total := 0
	for _, name := range model.EntityNames() {
		res, ok := results[name]
		if !ok {
			continue
		}
		if len(res.Report) == 0 {
			fmt.Printf("%s: no issues\n", name)
			continue
		}
		fmt.Printf("%s: %d issue(s)\n", name, len(res.Report))
		for _, line := range res.Report {
			fmt.Printf("  %s\n", line)
		}
		total += len(res.Report)
	}
	return total
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the loaded schema summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			printSchema(a.model)
			return nil
		},
	}
}

func printSchema(model *mdf.Model) {
	names := model.EntityNames()
	for _, name := range names {
		ent, _ := model.Entity(name)
		if model.IsSingleton(name) {
			fmt.Printf("%s (singleton)\n", name)
		} else {
			fmt.Println(name)
		}
		for _, p := range ent.Properties {
			var flags []string
			if p.IsKey {
				flags = append(flags, "key")
			}
			if p.Required {
				flags = append(flags, "required")
			}
			if p.Linkage {
				flags = append(flags, "linkage")
			}
			line := "  " + p.Name
			if len(flags) > 0 {
				line += " [" + strings.Join(flags, ", ") + "]"
			}
			if vocab := model.Vocabulary(p.Name); len(vocab) > 0 {
				line += fmt.Sprintf(" (%d permissible values)", len(vocab))
			}
			fmt.Println(line)
		}
	}
	if len(model.Relationships) > 0 {
		fmt.Println("Relationships:")
		for _, rel := range model.Relationships {
			fmt.Printf("  %s: %s -> %s\n", rel.Name, rel.Source, rel.Destination)
		}
	}
	if len(names) == 0 {
		// Legacy vocabulary mode: values with no entities to hang on.
		props := make([]string, 0, len(model.Vocabularies))
		for p := range model.Vocabularies {
			props = append(props, p)
		}
		sort.Strings(props)
		fmt.Println("Vocabularies (no entity schema loaded):")
		for _, p := range props {
			fmt.Printf("  %s (%d permissible values)\n", p, len(model.Vocabularies[p]))
		}
	}
}

func splitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a source table into per-entity tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			sourcePath, _ := cmd.Flags().GetString("source")
			mappingPath, _ := cmd.Flags().GetString("mapping")
			outDir, _ := cmd.Flags().GetString("out")

			a, err := newApp()
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = a.cfg.OutputDir
			}
			src, err := readSource(sourcePath, a.logger)
			if err != nil {
				return err
			}
			mapping, err := readMapping(mappingPath)
			if err != nil {
				return err
			}

			tables, err := a.service.Split(src, mapping)
			if err != nil {
				return err
			}
			if len(tables) == 0 {
				return fmt.Errorf("mapping matches no schema property")
			}
			for _, name := range a.model.EntityNames() {
				tbl, ok := tables[name]
				if !ok {
					continue
				}
				fmt.Printf("%s: %d row(s), %d column(s)\n", name, len(tbl.Rows), len(tbl.Columns))
			}

			paths, err := a.service.Export(outDir, tables)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Println(p)
			}
			return nil
		},
	}
	cmd.Flags().String("source", "", "Source table (CSV or TSV)")
	cmd.Flags().String("mapping", "", "YAML mapping of Entity.property to source column")
	cmd.Flags().String("out", "", "Destination directory (default OUTPUT_DIR)")
	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check mapped values against the schema vocabularies",
		RunE: func(cmd *cobra.Command, args []string) error {
			sourcePath, _ := cmd.Flags().GetString("source")
			mappingPath, _ := cmd.Flags().GetString("mapping")
			apply, _ := cmd.Flags().GetBool("apply")

			a, err := newApp()
			if err != nil {
				return err
			}
			src, err := readSource(sourcePath, a.logger)
			if err != nil {
				return err
			}
			mapping, err := readMapping(mappingPath)
			if err != nil {
				return err
			}

			tables, err := a.service.Split(src, mapping)
			if err != nil {
				return err
			}
			if len(tables) == 0 {
				return fmt.Errorf("mapping matches no schema property")
			}
			results := a.service.ValidateAll(tables)
			issues := printResults(results, a.model)
			if !apply {
				if issues > 0 {
					fmt.Println("Re-run with --apply to accept the suggested corrections.")
				}
				return nil
			}

			corrected := a.service.ApplyAll(tables, results)
			fmt.Println("After corrections:")
			printResults(a.service.ValidateAll(corrected), a.model)
			return nil
		},
	}
	cmd.Flags().String("source", "", "Source table (CSV or TSV)")
	cmd.Flags().String("mapping", "", "YAML mapping of Entity.property to source column")
	cmd.Flags().Bool("apply", false, "Apply suggested corrections and re-validate")
	return cmd
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full standardization pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			sourcePath, _ := cmd.Flags().GetString("source")
			mappingPath, _ := cmd.Flags().GetString("mapping")
			submissionPath, _ := cmd.Flags().GetString("submission")
			outDir, _ := cmd.Flags().GetString("out")
			apply, _ := cmd.Flags().GetBool("apply")

			a, err := newApp()
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = a.cfg.OutputDir
			}
			src, err := readSource(sourcePath, a.logger)
			if err != nil {
				return err
			}
			mapping, err := readMapping(mappingPath)
			if err != nil {
				return err
			}

			if submissionPath != "" {
				sub, err := readSubmission(submissionPath)
				if err != nil {
					return err
				}
				return runSession(a, sub, src, mapping, outDir, apply)
			}
			return runPipeline(a, src, mapping, outDir, apply)
		},
	}
	cmd.Flags().String("source", "", "Source table (CSV or TSV)")
	cmd.Flags().String("mapping", "", "YAML mapping of Entity.property to source column")
	cmd.Flags().String("submission", "", "Collected-metadata JSON; runs the guided session when set")
	cmd.Flags().String("out", "", "Destination directory (default OUTPUT_DIR)")
	cmd.Flags().Bool("apply", false, "Apply suggested corrections before writing")
	return cmd
}

// runPipeline is the sessionless path: split, validate, optionally
// apply, check linkage, resolve singletons, write.
func runPipeline(a *app, src *tabular.Table, mapping remap.Mapping, outDir string, apply bool) error {
	tables, err := a.service.Split(src, mapping)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		return fmt.Errorf("mapping matches no schema property")
	}

	results := a.service.ValidateAll(tables)
	issues := printResults(results, a.model)
	if apply {
		tables = a.service.ApplyAll(tables, results)
	} else if issues > 0 {
		fmt.Println("Suggestions not applied; re-run with --apply to accept them.")
	}

	for _, link := range linkage.Check(tables, a.model) {
		fmt.Printf("missing link: %s has no %q column referencing %s\n", link.Entity, link.Property, link.TargetEntity)
	}
	for _, r := range linkage.ResolveSingletons(tables, a.model) {
		fmt.Printf("filled %s.%s with %q from collected %s\n", r.Entity, r.Property, r.Value, r.Target)
	}

	paths, err := a.service.Export(outDir, tables)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

// runSession walks the guided phases in one shot: collected metadata
// joins the mapped tables, conflicts and missing links come out as
// advisories, and the export lands in a per-session directory.
func runSession(a *app, sub catalog.Submission, src *tabular.Table, mapping remap.Mapping, outDir string, apply bool) error {
	session := wizard.NewSession(a.service, a.logger)
	if err := session.SetSubmission(sub); err != nil {
		return err
	}
	if err := session.SetSource(src); err != nil {
		return err
	}
	if err := session.SetMapping(mapping); err != nil {
		return err
	}
	for _, c := range session.Conflicts() {
		fmt.Printf("conflict: %s.%s: collected %q, mapped %q\n", c.Entity, c.Property, c.InitialValue, c.NewValue)
	}

	results, err := session.RunValidation()
	if err != nil {
		return err
	}
	issues := printResults(results, a.model)
	if apply {
		if err := session.AcceptCorrections(); err != nil {
			return err
		}
		results, err = session.RunValidation()
		if err != nil {
			return err
		}
		fmt.Println("After corrections:")
		printResults(results, a.model)
	} else if issues > 0 {
		fmt.Println("Suggestions not applied; re-run with --apply to accept them.")
	}

	paths, err := session.Export(outDir)
	if err != nil {
		return err
	}
	for _, link := range session.MissingLinks() {
		fmt.Printf("missing link: %s has no %q column referencing %s\n", link.Entity, link.Property, link.TargetEntity)
	}
	for _, r := range session.Resolutions() {
		fmt.Printf("filled %s.%s with %q from collected %s\n", r.Entity, r.Property, r.Value, r.Target)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func clinicalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clinical",
		Short: "Standardize a flat clinical data table",
		RunE: func(cmd *cobra.Command, args []string) error {
			sourcePath, _ := cmd.Flags().GetString("source")
			outPath, _ := cmd.Flags().GetString("out")
			project, _ := cmd.Flags().GetString("project")
			ageUOM, _ := cmd.Flags().GetString("age-uom")
			apply, _ := cmd.Flags().GetBool("apply")

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			svc := clinical.NewService(match.New(match.WithCutoff(cfg.MatchCutoff)), logger)

			src, err := readSource(sourcePath, logger)
			if err != nil {
				return err
			}
			var opts []clinical.Option
			if project != "" {
				opts = append(opts, clinical.WithProjectShortName(project))
			}
			if ageUOM != "" {
				opts = append(opts, clinical.WithAgeUOM(ageUOM))
			}

			res, err := svc.Standardize(src, opts...)
			if err != nil {
				return err
			}
			printClinical(res)

			if apply && len(res.Corrections) > 0 {
				// Corrections go onto the raw source, never onto the
				// standardized table: ages there are already in years.
				fixed := clinical.Apply(src, res.Corrections)
				res, err = svc.Standardize(fixed, opts...)
				if err != nil {
					return err
				}
				fmt.Println("After corrections:")
				printClinical(res)
			}

			if outPath != "" {
				if err := tabular.WriteTSVFile(outPath, res.Table); err != nil {
					return err
				}
				fmt.Printf("Wrote %s\n", outPath)
			}
			return nil
		},
	}
	cmd.Flags().String("source", "", "Clinical table (CSV or TSV)")
	cmd.Flags().String("out", "", "Write the standardized table to this path")
	cmd.Flags().String("project", "", "Fill the Project Short Name column with this value")
	cmd.Flags().String("age-uom", "", "Fill the Age UOM column with this unit")
	cmd.Flags().Bool("apply", false, "Accept suggested corrections and re-run")
	return cmd
}

func printClinical(res *clinical.Result) {
	renamed := make([]string, 0, len(res.Renamed))
	for from := range res.Renamed {
		renamed = append(renamed, from)
	}
	sort.Strings(renamed)
	for _, from := range renamed {
		fmt.Printf("renamed column %q -> %q\n", from, res.Renamed[from])
	}
	for _, col := range res.Unexpected {
		fmt.Printf("unexpected column %q left as-is\n", col)
	}
	if n := len(res.RemovedRows); n > 0 {
		fmt.Printf("removed %d duplicate row(s)\n", n)
	}
	if len(res.Report) == 0 {
		fmt.Println("No issues found.")
		return
	}
	fmt.Printf("%d issue(s):\n", len(res.Report))
	for _, line := range res.Report {
		fmt.Printf("  %s\n", line)
	}
}

func programsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "programs",
		Short: "List the built-in program catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("%-12s %-55s %s\n", "SHORT NAME", "NAME", "DESCRIPTION")
			for _, p := range catalog.NewRegistry().List() {
				fmt.Printf("%-12s %-55s %s\n", p.ShortName, p.Name, p.ShortDescription)
			}
			return nil
		},
	}
}

func inventoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Inventory DICOM series under a directory tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			outPath, _ := cmd.Flags().GetString("out")
			archive, _ := cmd.Flags().GetBool("zip")
			if root == "" {
				return fmt.Errorf("--root is required")
			}

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			scanner, err := inventory.NewScanner(logger, cfg.InventoryPatterns...)
			if err != nil {
				return err
			}

			overview, err := scanner.Overview(root)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(overview); err != nil {
				return err
			}

			series, err := scanner.Scan(root)
			if err != nil {
				return err
			}
			fmt.Printf("%d series across %d DICOM file(s)\n", len(series), overview.DICOMFileCount)

			if archive {
				// Archive before writing so the rows carry the zip MD5s.
				destDir := filepath.Join(cfg.OutputDir, "archives")
				if err := scanner.Archive(series, destDir); err != nil {
					return err
				}
				fmt.Printf("Archived %d series to %s\n", len(series), destDir)
			}

			if outPath == "" {
				outPath = filepath.Join(cfg.OutputDir, "inventory.tsv")
			}
			if err := inventory.WriteInventory(series, outPath); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().String("root", "", "Directory tree to scan")
	cmd.Flags().String("out", "", "Inventory TSV path (default OUTPUT_DIR/inventory.tsv)")
	cmd.Flags().Bool("zip", false, "Zip each series into OUTPUT_DIR/archives")
	return cmd
}
