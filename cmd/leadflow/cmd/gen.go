package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
)

type generator struct {
	name   string
	bin    string
	args   []string
	skipFn func() bool
}

// GenCmd regenerates the committed templ output. Run it from the module root
// after editing any .templ file.
func GenCmd() *cobra.Command {
	var force bool

	genCmd := &cobra.Command{
		Use:   "gen",
		Short: "Regenerate Go code from the templ views",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(generators(force))
		},
	}
	genCmd.Flags().BoolVar(&force, "force", false, "regenerate even when the output is up to date")

	return genCmd
}

func generators(force bool) []generator {
	skip := func() bool { return !force && templUpToDate("internal") }
	return []generator{
		{
			name:   "templ",
			bin:    "go",
			args:   []string{"tool", "templ", "generate", "-path", "internal"},
			skipFn: skip,
		},
	}
}

func runGen(gens []generator) error {
	start := time.Now()
	var wg sync.WaitGroup
	errCh := make(chan error, len(gens))

	for _, g := range gens {
		wg.Add(1)
		go func(g generator) {
			defer wg.Done()

			if g.skipFn != nil && g.skipFn() {
				fmt.Printf("[%s] skipped\n", g.name)
				return
			}

			genStart := time.Now()
			cmd := exec.Command(g.bin, g.args...)
			cmd.Stdout = os.Stdout
			cmd.Stderr = os.Stderr
			if err := cmd.Run(); err != nil {
				errCh <- fmt.Errorf("%s: %w", g.name, err)
				return
			}

			fmt.Printf("[%s] done (%s)\n", g.name, time.Since(genStart).Round(time.Millisecond))
		}(g)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("generation failed: %w", errors.Join(errs...))
	}

	fmt.Printf("done (%s)\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// templUpToDate reports whether every .templ file under root has a newer _templ.go.
func templUpToDate(root string) bool {
	upToDate := true
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".templ") {
			return nil
		}
		if !isUpToDate(strings.TrimSuffix(path, ".templ")+"_templ.go", []string{path}) {
			upToDate = false
			return filepath.SkipAll
		}
		return nil
	})
	return upToDate
}

func isUpToDate(output string, inputs []string) bool {
	outInfo, err := os.Stat(output)
	if err != nil {
		return false
	}
	outMod := outInfo.ModTime()

	for _, input := range inputs {
		inInfo, err := os.Stat(input)
		if err != nil {
			continue
		}
		if inInfo.ModTime().After(outMod) {
			return false
		}
	}
	return true
}
