package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"proposal_assistant/exporter"
	"proposal_assistant/generator"
	"proposal_assistant/session"
)

func generateCmd(root *rootOptions) *cobra.Command {
	in := generator.DefaultIntake()
	var (
		size, focus string
		out         string
		stages      int
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a proposal framework for one intake",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer log.Sync()
			if stages < 1 || stages > generator.StageCount {
				return fmt.Errorf("--stages must be between 1 and %d", generator.StageCount)
			}
			in.CompanySize = generator.CompanySize(size)
			in.FocusArea = generator.FocusArea(focus)

			ctx := cmd.Context()
			agent, err := buildAgent(ctx, cfg, log, nil)
			if err != nil {
				return err
			}
			sess := session.New("cli", agent, session.WithLogger(log), session.WithTimeout(cfg.LLM.Timeout))
			snap, err := runStages(ctx, sess, in, stages)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, exporter.Markdown(snap.Framework.Sections()))
			proposal, ok := snap.Framework.Proposal()
			if !ok {
				return nil
			}
			path, err := exporter.WriteProposal(out, proposal)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "\nproposal written to %s\n", path)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.BusinessName, "business-name", "", "client business name")
	f.StringVar(&in.Industry, "industry", "", "client industry (required)")
	f.StringVar(&size, "size", string(in.CompanySize), "company size")
	f.StringVar(&focus, "focus", string(in.FocusArea), "service focus area")
	f.StringVar(&in.Challenge, "challenge", "", "business challenge (required)")
	f.StringVar(&out, "out", ".", "directory for the exported proposal")
	f.IntVar(&stages, "stages", generator.StageCount, "number of stages to generate")
	return cmd
}

// runStages submits in and advances until n stages exist, stopping at the
// first failed generation.
func runStages(ctx context.Context, sess *session.Session, in generator.Intake, n int) (session.Snapshot, error) {
	p, err := sess.SubmitIntake(ctx, in)
	if err != nil {
		return session.Snapshot{}, err
	}
	for {
		if err := p.Wait(ctx); err != nil {
			snap := sess.Snapshot()
			if snap.Error != "" {
				return snap, errors.New(snap.Error)
			}
			return snap, err
		}
		snap := sess.Snapshot()
		if snap.Cursor >= n {
			return snap, nil
		}
		if p, err = sess.Advance(ctx); err != nil {
			return snap, err
		}
	}
}
