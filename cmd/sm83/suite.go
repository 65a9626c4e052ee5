package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"

	"github.com/richardwooding/sm83/internal/harness"
	"github.com/richardwooding/sm83/internal/snapshot"
)

const (
	startSuffix    = "-start.json"
	expectedSuffix = "-expected.json"
)

// SuiteCmd verifies a directory of fixtures.
//
// Each NAME-start.json is run; when NAME-expected.json exists beside it the
// result is compared against it.
type SuiteCmd struct {
	Dir     string `arg:"" type:"existingdir" help:"Directory of fixture files."`
	Workers int    `help:"Fixtures to run in parallel (0 for one per CPU)." default:"0"`
	Value   uint8  `help:"Value the bus returns for every read." default:"0"`
	Verbose bool   `short:"v" help:"List passing fixtures too."`
}

// Run executes the suite command.
func (c *SuiteCmd) Run(log *logrus.Logger, out io.Writer) error {
	names, fixtures, err := loadFixtures(c.Dir)
	if err != nil {
		return err
	}
	if len(fixtures) == 0 {
		return fmt.Errorf("no *%s files in %s", startSuffix, c.Dir)
	}

	runner := harness.NewRunner(log)
	runner.ReadValue = c.Value

	results, runErr := runner.RunAll(context.Background(), fixtures, c.Workers)

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Fixture", "Opcode", "Cycles", "Fingerprint", "Result"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	passed := 0
	for i, res := range results {
		if res == nil {
			continue
		}
		if res.IsSuccess() {
			passed++
			if !c.Verbose {
				continue
			}
		}
		fingerprint := ""
		if res.Error == nil || res.Checked {
			fingerprint = fmt.Sprintf("%016X", res.Fingerprint)
		}
		table.Append([]string{names[i], res.Start.Name.String(), fmt.Sprintf("%d", res.Cycles), fingerprint, res.String()})
	}
	table.Render()

	fmt.Fprintf(out, "%d/%d fixtures passed\n", passed, len(fixtures))

	if runErr != nil {
		return fmt.Errorf("%w: %w", ErrTestFailed, runErr)
	}
	return nil
}

// loadFixtures reads every start snapshot in dir, sorted by name, together
// with its expected snapshot when present.
func loadFixtures(dir string) ([]string, []harness.Fixture, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+startSuffix))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list fixtures: %w", err)
	}
	sort.Strings(paths)

	names := make([]string, 0, len(paths))
	fixtures := make([]harness.Fixture, 0, len(paths))

	for _, path := range paths {
		start, err := snapshot.Load(path)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}

		fixture := harness.Fixture{Start: start}

		expectedPath := strings.TrimSuffix(path, startSuffix) + expectedSuffix
		if _, statErr := os.Stat(expectedPath); statErr == nil {
			expected, err := snapshot.Load(expectedPath)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", expectedPath, err)
			}
			fixture.Expected = &expected
		}

		names = append(names, strings.TrimSuffix(filepath.Base(path), startSuffix))
		fixtures = append(fixtures, fixture)
	}

	return names, fixtures, nil
}
