package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tanq16/bingo/internal/downloader"
	"github.com/tanq16/bingo/internal/output"
	"github.com/tanq16/bingo/internal/scheduler"
	"github.com/tanq16/bingo/internal/utils"
	"github.com/tanq16/bingo/internal/ytdlp"
)

func newBatchCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE] [--workers N]",
		Short: "Process multiple downloads from a YAML file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			batchFile, err := readBatchFile(args[0])
			if err != nil {
				exitWith(err.Error())
			}
			jobs := buildJobsFromBatch(batchFile)
			if len(jobs) == 0 {
				exitWith("No valid jobs found in the batch file")
			}

			a := mustApp()
			defer a.Close()
			ctx, stop := signalContext()
			defer stop()

			log.Debug().Str("op", "cmd/batch").Msgf("Starting scheduler with %d jobs", len(jobs))
			manager := output.NewManager()
			manager.StartDisplay()
			scheduler.Run(ctx, a.svc, manager, jobs, workers)
			manager.StopDisplay()
			if manager.Failures() > 0 {
				a.Close()
				os.Exit(1)
			}
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 2, "Number of downloads to run in parallel")
	return cmd
}

func readBatchFile(path string) (utils.BatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading YAML file: %w", err)
	}
	var batchFile utils.BatchFile
	if err := yaml.Unmarshal(data, &batchFile); err != nil {
		return nil, fmt.Errorf("parsing YAML file: %w", err)
	}
	return batchFile, nil
}

// buildJobsFromBatch turns batch sections into jobs. Sections are visited in
// name order so the job list is stable across runs.
func buildJobsFromBatch(batchFile utils.BatchFile) []scheduler.Job {
	sections := make([]string, 0, len(batchFile))
	for section := range batchFile {
		sections = append(sections, section)
	}
	sort.Strings(sections)

	var jobs []scheduler.Job
	for _, section := range sections {
		mode := ytdlp.Mode(utils.NormalizeJobType(section))
		if mode == "" {
			output.PrintWarning(fmt.Sprintf("Unknown job type '%s', skipping...", section))
			continue
		}
		for _, entry := range batchFile[section] {
			if entry.Link == "" {
				output.PrintWarning(fmt.Sprintf("Empty link found in %s section, skipping...", section))
				continue
			}
			req := downloader.Request{
				URL:          entry.Link,
				Mode:         mode,
				Quality:      entry.Quality,
				CookieSource: entry.CookieSource,
				Destination:  entry.OutputPath,
			}
			switch mode {
			case ytdlp.ModeAudio:
				req.AudioFormat = entry.AudioFormat
			case ytdlp.ModeSubtitles:
				req.SubtitleLangs = entry.SubtitleLangs
			}
			jobs = append(jobs, scheduler.NewJob(req))
		}
	}
	return jobs
}
