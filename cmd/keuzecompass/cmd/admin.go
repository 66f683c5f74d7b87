package cmd

import (
	"fmt"

	"keuzecompass/internal/domain/admin"
	"keuzecompass/internal/domain/vkm"

	"github.com/spf13/cobra"
)

func newAdminCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage modules and users (admins only)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.init(cmd.Context()); err != nil {
				return err
			}
			return c.requireAdmin()
		},
	}
	cmd.AddCommand(newAdminVKMCmd(c), newAdminUsersCmd(c))
	return cmd
}

// ========== Modules ==========

func newAdminVKMCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vkm",
		Aliases: []string{"modules"},
		Short:   "Create, update and delete modules",
	}

	var ff filterFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List all modules, including inactive ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := ff.filters()
			if err != nil {
				return err
			}
			modules, err := c.app.AdminService.ListVKMs(cmd.Context(), filters)
			if err != nil {
				return c.fail(cmd.Context(), err)
			}
			return c.printModules(cmd, modules)
		},
	}
	ff.register(list)

	var create createFlags
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a module",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := create.data()
			if err != nil {
				return err
			}
			module, err := c.app.AdminService.CreateVKM(cmd.Context(), data)
			if err != nil {
				return c.fail(cmd.Context(), err)
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), module)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Module %s aangemaakt (id %s).\n", module.Name, module.ID)
			return nil
		},
	}
	create.register(createCmd)

	var update updateFlags
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := update.data(cmd)
			if err != nil {
				return err
			}
			module, err := c.app.AdminService.UpdateVKM(cmd.Context(), args[0], data)
			if err != nil {
				return c.fail(cmd.Context(), err)
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), module)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Module %s bijgewerkt.\n", module.ID)
			return nil
		},
	}
	update.register(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.AdminService.DeleteVKM(cmd.Context(), args[0]); err != nil {
				return c.fail(cmd.Context(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Module %s verwijderd.\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, createCmd, updateCmd, deleteCmd)
	return cmd
}

type createFlags struct {
	name, short, description, content string
	credits, location, contact, level   string
	outcomes                            string
}

func (f *createFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "module name")
	cmd.Flags().StringVar(&f.short, "short", "", "short description")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().StringVar(&f.content, "content", "", "content")
	cmd.Flags().StringVar(&f.credits, "credits", "15", "study credits: 15 or 30")
	cmd.Flags().StringVar(&f.location, "location", "", "location")
	cmd.Flags().StringVar(&f.contact, "contact", "", "contact ID")
	cmd.Flags().StringVar(&f.level, "level", string(vkm.LevelNLQF5), "NLQF5 or NLQF6")
	cmd.Flags().StringVar(&f.outcomes, "outcomes", "", "learning outcomes")
}

func (f *createFlags) data() (vkm.CreateVKMData, error) {
	credits, err := vkm.ParseStudyCredit(f.credits)
	if err != nil {
		return vkm.CreateVKMData{}, err
	}
	return vkm.CreateVKMData{
		Name:             f.name,
		ShortDescription: f.short,
		Description:      f.description,
		Content:          f.content,
		StudyCredit:      credits,
		Location:         vkm.Location(f.location),
		ContactID:        f.contact,
		Level:            vkm.Level(f.level),
		LearningOutcomes: f.outcomes,
	}, nil
}

// updateFlags sends only the flags the user actually set.
type updateFlags struct {
	createFlags
	active string
}

func (f *updateFlags) register(cmd *cobra.Command) {
	f.createFlags.register(cmd)
	cmd.Flags().StringVar(&f.active, "active", "", "true or false")
}

func (f *updateFlags) data(cmd *cobra.Command) (vkm.UpdateVKMData, error) {
	var d vkm.UpdateVKMData
	changed := cmd.Flags().Changed

	if changed("name") {
		d.Name = &f.name
	}
	if changed("short") {
		d.ShortDescription = &f.short
	}
	if changed("description") {
		d.Description = &f.description
	}
	if changed("content") {
		d.Content = &f.content
	}
	if changed("credits") {
		sc, err := vkm.ParseStudyCredit(f.credits)
		if err != nil {
			return d, err
		}
		d.StudyCredit = &sc
	}
	if changed("location") {
		loc := vkm.Location(f.location)
		d.Location = &loc
	}
	if changed("contact") {
		d.ContactID = &f.contact
	}
	if changed("level") {
		lvl := vkm.Level(f.level)
		d.Level = &lvl
	}
	if changed("outcomes") {
		d.LearningOutcomes = &f.outcomes
	}
	if changed("active") {
		active, err := parseBool(f.active)
		if err != nil {
			return d, err
		}
		d.IsActive = &active
	}
	return d, nil
}

// ========== Users ==========

func newAdminUsersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := c.app.AdminService.ListUsers(cmd.Context())
			if err != nil {
				return c.fail(cmd.Context(), err)
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), users)
			}
			printUserTable(cmd.OutOrStdout(), users)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a user and their favorite modules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.app.AdminService.GetUser(cmd.Context(), args[0])
			if err != nil {
				return c.fail(cmd.Context(), err)
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), user)
			}
			printUser(cmd.OutOrStdout(), user)
			return nil
		},
	}

	var username, email, role string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change username, email or role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data admin.UpdateUserData
			if cmd.Flags().Changed("username") {
				data.Username = &username
			}
			if cmd.Flags().Changed("email") {
				data.Email = &email
			}
			if cmd.Flags().Changed("role") {
				data.Role = &role
			}
			user, err := c.app.AdminService.UpdateUser(cmd.Context(), args[0], data)
			if err != nil {
				return c.fail(cmd.Context(), err)
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), user)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Gebruiker %s bijgewerkt.\n", user.Username)
			return nil
		},
	}
	update.Flags().StringVar(&username, "username", "", "new username")
	update.Flags().StringVar(&email, "email", "", "new email address")
	update.Flags().StringVar(&role, "role", "", "student or admin")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.AdminService.DeleteUser(cmd.Context(), args[0]); err != nil {
				return c.fail(cmd.Context(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Gebruiker %s verwijderd.\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, show, update, del)
	return cmd
}
