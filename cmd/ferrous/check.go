package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ferrous/internal/driver"
	"ferrous/internal/project"
)

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Borrow-check exported body facts",
	Long:  `Check runs the borrow and move checker over a *.fctb facts file or every facts file under a directory`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().Int("jobs", 0, "number of bodies checked in parallel (0 = manifest default)")
	checkCmd.Flags().Bool("no-cache", false, "disable the on-disk result cache")
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	manifestDir := path
	if !info.IsDir() {
		manifestDir = filepath.Dir(path)
	}
	manifest, err := project.LoadOrDefault(manifestDir)
	if err != nil {
		return err
	}
	opts := driver.OptionsFromManifest(manifest)

	if v, _ := cmd.Flags().GetInt("max-diagnostics"); v > 0 {
		opts.MaxDiagnostics = v
	}
	if v, _ := cmd.Flags().GetInt("jobs"); v > 0 {
		opts.Jobs = v
	}

	noCache, _ := cmd.Flags().GetBool("no-cache")
	cacheEnabled := manifest.Check.Cache == nil || *manifest.Check.Cache
	if cacheEnabled && !noCache {
		// Кэш best-effort: без него проверка просто медленнее.
		if cache, err := driver.OpenDiskCache("ferrous"); err == nil {
			opts.Cache = cache
		}
	}

	var results []driver.BodyResult
	if info.IsDir() {
		results, err = driver.CheckDir(cmd.Context(), path, opts)
	} else {
		var res *driver.BodyResult
		res, err = driver.CheckFile(cmd.Context(), path, opts)
		if res != nil {
			results = []driver.BodyResult{*res}
		}
	}
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no %s files under %s\n", driver.FactsExt, path)
		return nil
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	timings, _ := cmd.Flags().GetBool("timings")
	useColor := colorEnabled(cmd)

	errs, warns := 0, 0
	for i := range results {
		res := &results[i]
		renderDiagnostics(cmd.OutOrStdout(), res, useColor)
		if res.Bag != nil {
			errs += res.Bag.ErrorCount()
			warns += res.Bag.WarningCount()
		}
		if timings && res.Timing != nil {
			renderTimings(cmd.OutOrStdout(), res)
		}
	}

	if !quiet {
		summary := fmt.Sprintf("%d bodies checked, %d errors, %d warnings", len(results), errs, warns)
		if useColor {
			c := color.New(color.FgGreen, color.Bold)
			if errs > 0 {
				c = color.New(color.FgRed, color.Bold)
			} else if warns > 0 {
				c = color.New(color.FgYellow, color.Bold)
			}
			summary = c.Sprint(summary)
		}
		fmt.Fprintln(cmd.OutOrStdout(), summary)
	}

	if errs > 0 {
		return fmt.Errorf("found %d problems", errs)
	}
	return nil
}

func colorEnabled(cmd *cobra.Command) bool {
	mode, _ := cmd.Flags().GetString("color")
	switch strings.ToLower(mode) {
	case "on", "always":
		return true
	case "off", "never":
		return false
	default:
		return isTerminal(os.Stdout)
	}
}
