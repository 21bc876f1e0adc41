package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"nathanbeddoewebdev/dockctl/internal/domain"
	"nathanbeddoewebdev/dockctl/internal/util"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
)

// ErrAborted is returned when the user cancels a prompt.
var ErrAborted = errors.New("aborted by user")

// Accessible reports whether prompts should run in accessible (plain line)
// mode, as requested with the ACCESSIBLE environment variable.
func Accessible() bool { return os.Getenv("ACCESSIBLE") != "" }

// Confirm asks a yes/no question. Answering no returns ErrAborted.
func Confirm(title, description string) error {
	ok := false
	field := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok)
	if description != "" {
		field = field.Description(description)
	}
	if err := runForm(Accessible(), huh.NewGroup(field)); err != nil {
		return err
	}
	if !ok {
		return ErrAborted
	}
	return nil
}

// Spin runs fn behind a spinner written to out. The spinner's context is
// cancelled if the user interrupts it.
func Spin(ctx context.Context, out io.Writer, title string, fn func(ctx context.Context) error) error {
	err := spinner.New().
		Title(title).
		Accessible(Accessible()).
		Output(out).
		Context(ctx).
		ActionWithErr(fn).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	return err
}

// SelectContainer lets the user pick one container from items.
func SelectContainer(title string, items []domain.Container) (domain.Container, error) {
	if len(items) == 0 {
		return domain.Container{}, fmt.Errorf("no containers available")
	}
	opts := make([]huh.Option[string], len(items))
	for i, c := range items {
		opts[i] = huh.NewOption(fmt.Sprintf("%s (%s, %s)", c.Name, c.Status, c.UsingImage), c.ID)
	}

	var id string
	if err := runForm(Accessible(), huh.NewGroup(
		huh.NewSelect[string]().Title(title).Options(opts...).Value(&id).Height(12),
	)); err != nil {
		return domain.Container{}, err
	}
	for _, c := range items {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Container{}, ErrAborted
}

// SelectBackup lets the user pick a backup file.
func SelectBackup(title string, backups []domain.Backup) (string, error) {
	if len(backups) == 0 {
		return "", fmt.Errorf("no backups available")
	}
	opts := make([]huh.Option[string], len(backups))
	for i, b := range backups {
		opts[i] = huh.NewOption(fmt.Sprintf("%s [%s]", b.Filename, b.Format()), b.Filename)
	}

	var name string
	if err := runForm(Accessible(), huh.NewGroup(
		huh.NewSelect[string]().Title(title).Options(opts...).Value(&name).Height(12),
	)); err != nil {
		return "", err
	}
	return name, nil
}

// UpdateAnswers are the values collected by UpdateForm.
type UpdateAnswers struct {
	Name      string
	ImageRef  string
	RemoveOld bool
}

// UpdateForm collects the options for moving a container to a new image,
// pre-filled from the container's current state.
func UpdateForm(c domain.Container) (UpdateAnswers, error) {
	ans := UpdateAnswers{Name: c.Name, ImageRef: c.UsingImage}
	confirm := false

	err := runForm(Accessible(),
		huh.NewGroup(
			huh.NewInput().
				Title("Image").
				Description("Reference to pull, e.g. nginx:1.27").
				Value(&ans.ImageRef).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("image is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Container name").
				Value(&ans.Name).
				Validate(util.ValidateContainerName),
			huh.NewConfirm().
				Title("Remove the old image afterwards?").
				Value(&ans.RemoveOld),
		),
		huh.NewGroup(
			huh.NewConfirm().
				TitleFunc(func() string {
					return fmt.Sprintf("Update %s to %s?", c.Name, strings.TrimSpace(ans.ImageRef))
				}, &ans).
				Value(&confirm),
		),
	)
	if err != nil {
		return UpdateAnswers{}, err
	}
	if !confirm {
		return UpdateAnswers{}, ErrAborted
	}
	ans.Name = strings.TrimSpace(ans.Name)
	ans.ImageRef = strings.TrimSpace(ans.ImageRef)
	return ans, nil
}

// runForm creates and runs a huh.Form, translating ErrUserAborted to ErrAborted.
func runForm(accessible bool, groups ...*huh.Group) error {
	err := huh.NewForm(groups...).WithAccessible(accessible).Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return err
	}
	return nil
}
