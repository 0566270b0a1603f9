package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/tandem/internal/auth"
	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/storage"
)

type UserAddCmd struct {
	ID   string `arg:"" help:"Short user id, e.g. alex."`
	Name string `short:"n" help:"Display name (defaults to the id)."`
}

func (c *UserAddCmd) Validate() error {
	if strings.TrimSpace(c.ID) == "" || strings.ContainsAny(c.ID, " \t") {
		return fmt.Errorf("user id must be a single word")
	}
	return nil
}

func (c *UserAddCmd) Run(ctx *Context) error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = c.ID
	}
	if _, err := ctx.Store.GetUser(ctx.context(), c.ID); err == nil {
		return fmt.Errorf("user %q already exists", c.ID)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	user := models.User{ID: c.ID, Name: name, CreatedAt: ctx.now()}
	if err := ctx.Store.AddUser(ctx.context(), user); err != nil {
		return err
	}
	fmt.Printf("Added user: %s (%s)\n", user.Name, user.ID)
	return nil
}

type UserPairCmd struct {
	First  string `arg:"" help:"First user id."`
	Second string `arg:"" help:"Second user id."`
}

func (c *UserPairCmd) Run(ctx *Context) error {
	if c.First == c.Second {
		return fmt.Errorf("a user cannot be paired with themselves")
	}
	for _, id := range []string{c.First, c.Second} {
		if _, err := ctx.lookupUser(id); err != nil {
			return err
		}
	}
	if err := ctx.Store.PairUsers(ctx.context(), c.First, c.Second); err != nil {
		return err
	}
	fmt.Printf("✓ Paired %s and %s\n", c.First, c.Second)
	return nil
}

type UserListCmd struct{}

func (c *UserListCmd) Run(ctx *Context) error {
	users, err := ctx.Store.GetAllUsers(ctx.context())
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("No users found. Add one with 'tandem user add <id>'.")
		return nil
	}

	fmt.Println("Users:")
	for _, u := range users {
		partner := "no partner"
		if u.HasPartner() {
			partner = "partner " + *u.PartnerID
		}
		fmt.Printf("  %-12s %s (%s)\n", u.ID, u.Name, partner)
	}
	return nil
}

type LoginCmd struct {
	User string `arg:"" help:"User id to sign in as."`
}

func (c *LoginCmd) Run(ctx *Context) error {
	user, err := ctx.lookupUser(c.User)
	if err != nil {
		return err
	}
	if err := auth.SetCurrentUser(user.ID); err != nil {
		return err
	}
	fmt.Printf("✓ Signed in as %s\n", user.Name)
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *Context) error {
	if err := auth.Logout(); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			fmt.Println("Nobody is signed in.")
			return nil
		}
		return err
	}
	fmt.Println("✓ Signed out")
	return nil
}

type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(ctx *Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", user.Name, user.ID)
	if user.HasPartner() {
		fmt.Printf("Partner: %s\n", *user.PartnerID)
	}
	return nil
}
