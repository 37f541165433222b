package cli

import (
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"borderforge/internal/naming"
	"borderforge/internal/settings"
)

func runPurge(args []string) error {
	fs := flag.NewFlagSet("purge", flag.ContinueOnError)
	home := fs.String("home", "", "state directory (default $BORDERFORGE_HOME or the user config dir)")
	dir := fs.String("dir", "", "folder holding the numbered output folders (default: last saved input folder)")
	base := fs.String("base", naming.DefaultFolderBase, "numbered folder base name")
	yes := fs.Bool("yes", false, "skip confirmation")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := openEnv(*home, false)
	if err != nil {
		return err
	}
	defer env.Close()

	parent := strings.TrimSpace(*dir)
	if parent == "" {
		s, _, err := settings.Load(env.paths.Settings)
		if err != nil {
			return err
		}
		parent = s.InputPath
	}
	if err := checkInputFolder(parent); err != nil {
		return err
	}
	parent = absPath(parent)
	folderBase := defaultIfEmpty(*base, naming.DefaultFolderBase)

	_, next, err := naming.NextNumberedFolder(parent, folderBase)
	if err != nil {
		return err
	}
	if next <= 1 {
		if *jsonOut {
			return printJSON(map[string]any{"parent": parent, "base": folderBase, "result": naming.PurgeResult{}})
		}
		fmt.Printf("no %q folders to purge in %s\n", folderBase, parent)
		return nil
	}

	if !*yes {
		fmt.Printf("will delete %d folder(s) in %s:\n", next-1, parent)
		for n := 1; n < next; n++ {
			fmt.Printf("  %s\n", naming.FolderName(folderBase, n))
		}
		ok, err := promptConfirm("Delete them and everything inside? [y/N]: ")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("purge cancelled")
			return nil
		}
	}

	res, err := naming.PurgeNumbered(parent, folderBase, next)
	if err != nil {
		return err
	}
	env.log.Info("purge",
		"parent", parent,
		"base", folderBase,
		"deleted", res.Deleted,
		"missing", res.Missing,
		"failed", res.Failed,
		"item_failures", res.ItemFailures,
	)
	for _, f := range res.Failures {
		env.log.Warn("purge item failed", "path", f.Path, "error", f.Error)
	}

	if *jsonOut {
		return printJSON(map[string]any{"parent": parent, "base": folderBase, "result": res})
	}
	fmt.Printf("deleted: %d\n", res.Deleted)
	fmt.Printf("missing: %d\n", res.Missing)
	fmt.Printf("failed: %d\n", res.Failed)
	if res.ItemFailures > 0 {
		fmt.Printf("items that could not be removed: %d\n", res.ItemFailures)
		for _, f := range res.Failures {
			rel, err := filepath.Rel(parent, f.Path)
			if err != nil {
				rel = f.Path
			}
			fmt.Printf("  %s: %s\n", rel, f.Error)
		}
	}
	return nil
}
