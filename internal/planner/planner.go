// Package planner enumerates candidate inputs, either from a list file or
// a directory walk, and computes each candidate's output path.
package planner

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/backmassage/codecshift/internal/config"
	"github.com/backmassage/codecshift/internal/listfile"
	"github.com/backmassage/codecshift/internal/naming"
)

// Planner maps inputs onto the output tree.
type Planner struct {
	InputRoot  string
	OutputRoot string
	Ext        string // replacement extension, "" keeps the original
}

// New builds a Planner from validated configuration.
func New(cfg *config.Config) *Planner {
	return &Planner{
		InputRoot:  cfg.Paths.InputBaseFolder,
		OutputRoot: cfg.Paths.OutputBaseFolder,
		Ext:        cfg.OutputExt(),
	}
}

// Plan computes the candidate for input. Failure to derive a relative path
// is reported in PlanErr rather than returned.
func (p *Planner) Plan(input string) Candidate {
	c := Candidate{
		Input: input,
		Ext:   strings.TrimPrefix(strings.ToLower(filepath.Ext(input)), "."),
	}
	// Relative list entries and roots are taken from the working directory.
	input, err := absolute(input)
	if err != nil {
		c.PlanErr = err
		return c
	}
	c.Input = input
	inRoot, err := absolute(p.InputRoot)
	if err != nil {
		c.PlanErr = err
		return c
	}
	outRoot, err := absolute(p.OutputRoot)
	if err != nil {
		c.PlanErr = err
		return c
	}

	rel, err := naming.RelPath(inRoot, input)
	if err != nil {
		c.PlanErr = err
		return c
	}
	out, err := naming.OutputPath(inRoot, outRoot, input, p.Ext)
	if err != nil {
		c.PlanErr = err
		return c
	}
	c.Rel = rel
	c.Output = out
	return c
}

func absolute(path string) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	return filepath.Abs(path)
}

// Enumerate returns the candidate inputs for a run. With
// paths.use_input_files_list the list file is read and filtered to video
// extensions in file order; otherwise the input root is walked and
// unreadable entries are passed to onSkip.
func Enumerate(cfg *config.Config, onSkip SkipFunc) ([]string, error) {
	if cfg.Paths.UseInputFilesList {
		lines, err := listfile.Read(cfg.ListFilePath())
		if err != nil {
			return nil, err
		}
		files := make([]string, 0, len(lines))
		for _, l := range lines {
			if IsVideo(l) {
				files = append(files, l)
			}
		}
		return files, nil
	}

	files, err := Discover(cfg.Paths.InputBaseFolder, onSkip)
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", cfg.Paths.InputBaseFolder, err)
	}
	return files, nil
}
