package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/briandowns/spinner"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bnema/sweep/internal/adapters/out/docker"
	"github.com/bnema/sweep/internal/adapters/out/git"
	"github.com/bnema/sweep/internal/adapters/out/shell"
	"github.com/bnema/sweep/internal/config"
	"github.com/bnema/sweep/internal/domain"
	"github.com/bnema/sweep/internal/usecase/purge"
	"github.com/bnema/sweep/pkg/logger"
)

const (
	purgePlanRefColumnWidth     = 52
	purgePlanImageIDColumnWidth = 14
	purgePlanSizeColumnWidth    = 10
)

var purgePlanWidths = []int{
	purgePlanRefColumnWidth,
	purgePlanImageIDColumnWidth,
	purgePlanSizeColumnWidth,
}

// purgeService is the slice of the purge pipeline this command drives.
type purgeService interface {
	Inventory(ctx context.Context) ([]domain.Image, error)
	ResolveKeepSet(ctx context.Context, branches []string, command string) (domain.KeepSet, error)
	BuildPlan(images []domain.Image, keep domain.KeepSet, rules domain.Rules) domain.Plan
	Execute(ctx context.Context, plan domain.Plan) (domain.PurgeReport, error)
}

// confirmFunc asks the operator to confirm a destructive step.
type confirmFunc func(message string) (bool, error)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Purge local images not referenced by the configured branches",
	Long: `Collect keep-tags by checking out each configured branch and running the
discovery command, classify every local image through the keep/remove rules,
then delete the losers after confirmation and prune orphaned layers.`,
	RunE: runPurgeCmd,
}

func init() {
	rootCmd.AddCommand(purgeCmd)

	purgeCmd.Flags().String("repo", "", "path of the git repository to collect keep-tags from")
	purgeCmd.Flags().String("list-cmd", "", "shell command printing one keep-tag per line, run on each branch")
	purgeCmd.Flags().String("branches", "", "comma-delimited branches visited in order for keep-tag discovery")
	purgeCmd.Flags().String("keep-pattern", "", "always keep tags matching this pattern (highest priority)")
	purgeCmd.Flags().String("only-pattern", "", "only operate on tags matching this pattern")
	purgeCmd.Flags().String("remove-pattern", "", "always remove tags matching this pattern (keep-pattern wins)")
	purgeCmd.Flags().Bool("remove-dangling", true, "remove images that have no tags at all")
	purgeCmd.Flags().Bool("dry-run", false, "show the removal plan without deleting anything")

	_ = viper.BindPFlag("repo", purgeCmd.Flags().Lookup("repo"))
	_ = viper.BindPFlag("list_cmd", purgeCmd.Flags().Lookup("list-cmd"))
	_ = viper.BindPFlag("branches", purgeCmd.Flags().Lookup("branches"))
	_ = viper.BindPFlag("keep_pattern", purgeCmd.Flags().Lookup("keep-pattern"))
	_ = viper.BindPFlag("only_pattern", purgeCmd.Flags().Lookup("only-pattern"))
	_ = viper.BindPFlag("remove_pattern", purgeCmd.Flags().Lookup("remove-pattern"))
	_ = viper.BindPFlag("remove_dangling", purgeCmd.Flags().Lookup("remove-dangling"))
	_ = viper.BindPFlag("dry_run", purgeCmd.Flags().Lookup("dry-run"))
}

func runPurgeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(os.Stderr, cfg.LogLevel)

	store, err := docker.NewStore()
	if err != nil {
		return err
	}

	runner := shell.NewRunner(log)
	repo := git.NewRepository(cfg.Repo, runner, log)
	svc := purge.NewService(store, repo, log)

	return runPurge(cmd.Context(), svc, cfg, surveyConfirm, cmd.OutOrStdout())
}

func runPurge(ctx context.Context, svc purgeService, cfg *config.Config, confirm confirmFunc, out io.Writer) error {
	images, err := svc.Inventory(ctx)
	if err != nil {
		return err
	}

	sp := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(out))
	sp.Suffix = fmt.Sprintf(" Collecting keep-tags from %d branch(es) ...", len(cfg.Branches))
	sp.Start()
	keep, err := svc.ResolveKeepSet(ctx, cfg.Branches, cfg.ListCommand)
	sp.Stop()
	if err != nil {
		return err
	}

	plan := svc.BuildPlan(images, keep, cfg.Rules)

	if plan.Empty() {
		return writeLine(out, renderMuted("Nothing to remove"))
	}

	if err := renderPlan(out, plan); err != nil {
		return err
	}

	if cfg.DryRun {
		return writeLine(out, renderMuted("Dry run, nothing deleted"))
	}

	if err := writeLine(out, renderWarning("Deleting images is destructive and cannot be undone.")); err != nil {
		return err
	}

	proceed, err := confirm(fmt.Sprintf("Remove %d entries (up to %s)?",
		len(plan.Entries), humanize.IBytes(uint64(plan.SizeEstimate))))
	if err != nil {
		return err
	}
	if !proceed {
		return writeLine(out, renderMuted("Aborted, nothing deleted"))
	}

	report, err := svc.Execute(ctx, plan)
	if err != nil {
		return err
	}

	return writeLine(out, renderSuccess(fmt.Sprintf(
		"Removed %d of %d entries (pruned %d layers, reclaimed %s)",
		len(report.Removed), len(plan.Entries),
		report.Prune.Deleted, humanize.IBytes(report.Prune.SpaceReclaimed),
	)))
}

func renderPlan(out io.Writer, plan domain.Plan) error {
	if err := writeLine(out, renderTitle("Removal plan")); err != nil {
		return err
	}
	if err := writeLine(out, renderHeader(purgePlanWidths, []string{"REF", "IMAGE_ID", "SIZE"})); err != nil {
		return err
	}

	for _, entry := range plan.Entries {
		img := domain.Image{ID: entry.ImageID}
		row := renderRow(purgePlanWidths, []string{
			entry.Ref,
			img.ShortID(),
			humanize.IBytes(uint64(max(entry.Size, 0))),
		})
		if err := writeLine(out, row); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("Total: %d entries across %d images, up to %s (shared layers counted twice)",
		len(plan.Entries), len(plan.Images), humanize.IBytes(uint64(plan.SizeEstimate)))
	return writeLine(out, renderMuted(summary))
}

func surveyConfirm(message string) (bool, error) {
	var proceed bool
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}

	if err := survey.AskOne(prompt, &proceed); err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}

	return proceed, nil
}
