package image

import (
	"context"
	"fmt"
	"strings"

	"nathanbeddoewebdev/dockctl/internal/backend"
	"nathanbeddoewebdev/dockctl/internal/domain"

	"github.com/spf13/cobra"
)

// NewCommand returns the "image" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "image",
		Aliases:      []string{"images"},
		Short:        "Manage images on the Docker host",
		Long:         "List locally stored images and delete the ones no longer needed.",
		SilenceUsage: true,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(DeleteCommand())

	return cmd
}

// findImage resolves ref as an exact ID, name:tag, or unique ID prefix.
func findImage(ctx context.Context, client *backend.Client, ref string) (domain.Image, error) {
	images, err := client.ListImages(ctx)
	if err != nil {
		return domain.Image{}, err
	}

	ref = strings.TrimSpace(ref)
	var matches []domain.Image
	for _, img := range images {
		switch {
		case img.ID == ref, img.Ref() == ref:
			return img, nil
		case strings.HasPrefix(strings.TrimPrefix(img.ID, "sha256:"), strings.TrimPrefix(ref, "sha256:")):
			matches = append(matches, img)
		}
	}

	switch len(matches) {
	case 0:
		return domain.Image{}, fmt.Errorf("image %q: %w", ref, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return domain.Image{}, fmt.Errorf("image prefix %q matches %d images; use a longer ID", ref, len(matches))
	}
}
