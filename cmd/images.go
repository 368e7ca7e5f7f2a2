package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bnema/sweep/internal/adapters/out/docker"
	"github.com/bnema/sweep/internal/domain"
)

const (
	imagesListRepositoryColumnWidth = 44
	imagesListTagColumnWidth        = 20
	imagesListSizeColumnWidth       = 10
	imagesListImageIDColumnWidth    = 14
	imagesListDanglingColumnWidth   = 8
)

var imagesListWidths = []int{
	imagesListRepositoryColumnWidth,
	imagesListTagColumnWidth,
	imagesListSizeColumnWidth,
	imagesListImageIDColumnWidth,
	imagesListDanglingColumnWidth,
}

type imageLister interface {
	List(ctx context.Context) ([]domain.Image, error)
}

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "List local images",
	Long:  `List the local image inventory the purge pipeline would operate on.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := docker.NewStore()
		if err != nil {
			return err
		}

		return runImagesList(cmd.Context(), store, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(imagesCmd)
}

func runImagesList(ctx context.Context, store imageLister, out io.Writer) error {
	images, err := store.List(ctx)
	if err != nil {
		return err
	}

	if len(images) == 0 {
		return writeLine(out, renderMuted("No images found"))
	}

	if err := writeLine(out, renderTitle("Images")); err != nil {
		return err
	}
	header := []string{"REPOSITORY", "TAG", "SIZE", "IMAGE_ID", "DANGLING"}
	if err := writeLine(out, renderHeader(imagesListWidths, header)); err != nil {
		return err
	}

	danglingCount := 0
	var totalSize int64
	for _, img := range images {
		if img.Size > 0 {
			totalSize += img.Size
		}
		size := humanize.IBytes(uint64(max(img.Size, 0)))

		if img.Dangling() {
			danglingCount++
			row := renderRow(imagesListWidths, []string{"<none>", "<none>", size, img.ShortID(), "yes"})
			if err := writeLine(out, row); err != nil {
				return err
			}
			continue
		}

		for _, tag := range img.Tags() {
			repository, version := domain.SplitRepoTag(tag)
			row := renderRow(imagesListWidths, []string{repository, version, size, img.ShortID(), "no"})
			if err := writeLine(out, row); err != nil {
				return err
			}
		}
	}

	summary := fmt.Sprintf("Total images: %d (dangling: %d), %s on disk",
		len(images), danglingCount, humanize.IBytes(uint64(totalSize)))
	return writeLine(out, renderMuted(summary))
}
